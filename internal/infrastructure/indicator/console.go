package indicator

import (
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"accessterm/internal/domain/terminal"
)

// Console renders indicator patterns as text lines, one per change.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	led LED

	lamps map[LED]*color.Color
	buzz  *color.Color
}

// NewConsole writes to out. Colour is forced on or off so output does not depend on the terminal.
func NewConsole(out io.Writer, colored bool) *Console {
	c := &Console{
		out: out,
		led: LEDOff,
		lamps: map[LED]*color.Color{
			LEDOff:    color.New(color.FgHiBlack),
			LEDRed:    color.New(color.FgRed, color.Bold),
			LEDYellow: color.New(color.FgYellow, color.Bold),
			LEDGreen:  color.New(color.FgGreen, color.Bold),
		},
		buzz: color.New(color.FgMagenta),
	}

	for _, lamp := range c.lamps {
		setColor(lamp, colored)
	}
	setColor(c.buzz, colored)

	return c
}

func (c *Console) Emit(e terminal.Event) {
	p := PatternFor(e)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !p.Keep && p.LED != c.led {
		c.led = p.LED
		c.lamps[p.LED].Fprintf(c.out, "[led] %-6s %s\n", p.LED, e)
	}

	if len(p.Buzz) > 0 {
		beeps := make([]string, 0, len(p.Buzz))
		for _, d := range p.Buzz {
			beeps = append(beeps, d.String())
		}
		c.buzz.Fprintf(c.out, "[buzz] %s %s\n", strings.Join(beeps, " "), e)
	}
}

// LED returns the lamp currently lit.
func (c *Console) LED() LED {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.led
}

func setColor(c *color.Color, on bool) {
	if on {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}
