package settings

import (
	"fmt"
	"sort"
)

// Field identifies one of the five persisted identity/network values.
type Field int

const (
	FieldSSID Field = iota
	FieldPassword
	FieldEndpoint
	FieldTerminalID
	FieldAuthKey

	fieldCount = 5
)

// Capacities in bytes, in persisted order.
const (
	SSIDCapacity       = 32
	PasswordCapacity   = 64
	EndpointCapacity   = 128
	TerminalIDCapacity = 32
	AuthKeyCapacity    = 64

	// LayoutSize is the number of bytes the five fields occupy back to back.
	LayoutSize = SSIDCapacity + PasswordCapacity + EndpointCapacity + TerminalIDCapacity + AuthKeyCapacity
)

var fieldNames = [fieldCount]string{"ssid", "password", "endpoint", "terminalId", "authKey"}

var fieldCapacities = [fieldCount]int{
	SSIDCapacity,
	PasswordCapacity,
	EndpointCapacity,
	TerminalIDCapacity,
	AuthKeyCapacity,
}

// Fields returns all fields in persisted order.
func Fields() []Field {
	return []Field{FieldSSID, FieldPassword, FieldEndpoint, FieldTerminalID, FieldAuthKey}
}

// ParseField resolves a wire name such as "terminalId".
func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func (f Field) valid() bool {
	return f >= 0 && f < fieldCount
}

func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Capacity is the fixed byte capacity of the field.
func (f Field) Capacity() int {
	if !f.valid() {
		return 0
	}
	return fieldCapacities[f]
}

// Offset is the byte offset of the field in the persisted layout.
func (f Field) Offset() int {
	off := 0
	for i := Field(0); i < f && i < fieldCount; i++ {
		off += fieldCapacities[i]
	}
	return off
}

// Secret reports whether the field must not appear in logs.
func (f Field) Secret() bool {
	return f == FieldPassword || f == FieldAuthKey
}

// Truncate cuts value to the first Capacity() bytes of f. Longer values are never rejected.
func Truncate(f Field, value string) string {
	if c := f.Capacity(); len(value) > c {
		return value[:c]
	}
	return value
}

// Record is the terminal identity and connection profile.
type Record struct {
	SSID       string `json:"ssid" yaml:"ssid"`
	Password   string `json:"password" yaml:"password"`
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	TerminalID string `json:"terminalId" yaml:"terminalId"`
	AuthKey    string `json:"authKey" yaml:"authKey"`
}

// Get returns the value of f, or "" for an unknown field.
func (r Record) Get(f Field) string {
	switch f {
	case FieldSSID:
		return r.SSID
	case FieldPassword:
		return r.Password
	case FieldEndpoint:
		return r.Endpoint
	case FieldTerminalID:
		return r.TerminalID
	case FieldAuthKey:
		return r.AuthKey
	}
	return ""
}

// With returns a copy of r with f set to the truncated value.
func (r Record) With(f Field, value string) Record {
	value = Truncate(f, value)
	switch f {
	case FieldSSID:
		r.SSID = value
	case FieldPassword:
		r.Password = value
	case FieldEndpoint:
		r.Endpoint = value
	case FieldTerminalID:
		r.TerminalID = value
	case FieldAuthKey:
		r.AuthKey = value
	}
	return r
}

// Normalize truncates every field to its capacity.
func (r Record) Normalize() Record {
	for _, f := range Fields() {
		r = r.With(f, r.Get(f))
	}
	return r
}

// Provisioned reports whether the identity needed by every sync operation is present.
func (r Record) Provisioned() bool {
	return r.Endpoint != "" && r.TerminalID != "" && r.AuthKey != ""
}

// Equal is field-wise string equality.
func (r Record) Equal(o Record) bool {
	return r == o
}

// Masked returns a copy safe for logs and operator output.
func (r Record) Masked() Record {
	for _, f := range Fields() {
		if f.Secret() && r.Get(f) != "" {
			r = r.With(f, hidden)
		}
	}
	return r
}

const hidden = "[hidden]"

// Patch is a sparse update: only the fields it holds are touched.
type Patch map[Field]string

// Fields lists the patched fields in persisted order.
func (p Patch) Fields() []Field {
	out := make([]Field, 0, len(p))
	for f := range p {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Empty reports whether the patch touches nothing.
func (p Patch) Empty() bool {
	return len(p) == 0
}

// Diff returns the patch that turns r into candidate, restricted to the fields present in candidate.
// Candidate values are compared after truncation, so re-proposing an over-long value that is already
// stored yields an empty patch.
func (r Record) Diff(candidate map[Field]string) Patch {
	p := Patch{}
	for f, v := range candidate {
		if !f.valid() {
			continue
		}
		v = Truncate(f, v)
		if r.Get(f) != v {
			p[f] = v
		}
	}
	return p
}

// Apply returns r with the patch applied and whether any value actually changed.
func (r Record) Apply(p Patch) (Record, bool) {
	changed := false
	for _, f := range p.Fields() {
		next := r.With(f, p[f])
		if next != r {
			changed = true
			r = next
		}
	}
	return r, changed
}
