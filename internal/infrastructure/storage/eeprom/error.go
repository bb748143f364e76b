package eeprom

import "errors"

var ErrShortImage = errors.New("eeprom image too short")
