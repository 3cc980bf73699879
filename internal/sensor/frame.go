package sensor

import (
	"errors"
	"fmt"
	"strings"

	"weather-agent/internal/model"
)

// ErrMalformedFrame indicates a station frame that could not be decoded into
// the expected field set. No partial field set is ever returned with it.
var ErrMalformedFrame = errors.New("malformed frame")

// expectedFieldCount is fixed by the station firmware's frame format.
// Example frame:
//
//	$,ws=3.3,wd=12,gs=6,gd=12,ws2=2.5,wd2=11,gs10=5,gd10=14,
//	h=73.4,t=58.5,p=101189.0,r=0.00,dr=0.00,b=3.94,l=1.1,#
const expectedFieldCount = 15

const (
	framePrefix = "$,"
	frameSuffix = ",#"
)

// ParseFrame decodes a raw station frame into a FieldSet. The frame must be
// wrapped in the fixed delimiters and carry exactly the expected field count;
// anything else is rejected wholesale as ErrMalformedFrame.
func ParseFrame(frame string) (model.FieldSet, error) {
	if len(frame) < len(framePrefix)+len(frameSuffix) ||
		!strings.HasPrefix(frame, framePrefix) || !strings.HasSuffix(frame, frameSuffix) {
		return nil, fmt.Errorf("%w: missing frame delimiters", ErrMalformedFrame)
	}

	body := frame[len(framePrefix) : len(frame)-len(frameSuffix)]
	fs := make(model.FieldSet, expectedFieldCount)
	for _, token := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		fs[k] = v
	}

	if len(fs) != expectedFieldCount {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedFrame, len(fs), expectedFieldCount)
	}
	return fs, nil
}
