package aoe

import (
	"bytes"
	"io"
	"reflect"
	"testing"
)

func TestHeaderMarshalBinary(t *testing.T) {
	var tests = []struct {
		desc string
		h    *Header
		b    []byte
		err  error
	}{
		{
			desc: "header version not 1",
			h: &Header{
				Version: 0x2,
			},
			err: ErrorUnsupportedVersion,
		},
		{
			desc: "nil Arg field, error-only reply",
			h: &Header{
				Version:      Version,
				FlagResponse: true,
				FlagError:    true,
				Error:        ErrorUnrecognizedCommandCode,
				Shelf:        2,
				Slot:         3,
			},
			b: []byte{0x1c, 1, 0, 2, 3, 0, 0, 0, 0, 0},
		},
		{
			desc: "error marshaling Arg field",
			h: &Header{
				Version: Version,
				Arg: &errArg{
					err: io.ErrUnexpectedEOF,
				},
			},
			err: io.ErrUnexpectedEOF,
		},
		{
			desc: "header OK, Version 1, Shelf 2, Slot 3",
			h: &Header{
				Version: Version,
				Shelf:   2,
				Slot:    3,
				Arg:     &noopArg{},
			},
			b: []byte{0x10, 0, 0, 2, 3, 0, 0, 0, 0, 0},
		},
		{
			desc: "header OK, Version 1, FlagResponse true, FlagError true, Error 1",
			h: &Header{
				Version:      Version,
				FlagResponse: true,
				FlagError:    true,
				Error:        1,
				Arg:          &noopArg{},
			},
			b: []byte{0x1c, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		},
	}

	for i, tt := range tests {
		b, err := tt.h.MarshalBinary()
		if err != nil || tt.err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error: %v != %v",
					i, tt.desc, want, got)
			}

			continue
		}

		if want, got := tt.b, b; !bytes.Equal(want, got) {
			t.Fatalf("[%02d] test %q, unexpected bytes:\n- want: %v\n-  got: %v",
				i, tt.desc, want, got)
		}
	}
}

func TestHeaderUnmarshalBinary(t *testing.T) {
	var tests = []struct {
		desc string
		b    []byte
		h    *Header
		err  error
	}{
		{
			desc: "header too short",
			b:    make([]byte, headerLen-1),
			err:  io.ErrUnexpectedEOF,
		},
		{
			desc: "header version not 1",
			b:    []byte{0x20, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			err:  ErrorUnsupportedVersion,
		},
		{
			desc: "unknown command decodes with nil Arg",
			b:    []byte{0x10, 0, 0, 0, 0, 0xf, 0, 0, 0, 0},
			h: &Header{
				Version: Version,
				Command: Command(0xf),
				Arg:     nil,
			},
		},
		{
			desc: "header with CommandIssueATACommand, ATAArg unexpected EOF",
			b:    []byte{0x10, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			err:  io.ErrUnexpectedEOF,
		},
		{
			desc: "header with CommandIssueATACommand, ATAArg OK",
			b: []byte{
				0x10, 0, 0, 1, 2, 0, 0, 0, 0, 10,
				0, 1, 2, 3, 6, 6, 6, 6, 6, 6, 0, 0, 'f', 'o', 'o',
			},
			h: &Header{
				Version: Version,
				Shelf:   1,
				Slot:    2,
				Command: CommandIssueATACommand,
				Tag:     [4]byte{0, 0, 0, 10},
				Arg: &ATAArg{
					ErrFeature:  1,
					SectorCount: 2,
					CmdStatus:   3,
					LBA:         [6]uint8{6, 6, 6, 6, 6, 6},
					Data:        []byte("foo"),
				},
			},
		},
		{
			desc: "header with CommandQueryConfigInformation, CFGArg unexpected EOF",
			b:    []byte{0x10, 0, 0, 0, 0, 1, 0, 0, 0, 0},
			err:  io.ErrUnexpectedEOF,
		},
		{
			desc: "header with CommandQueryConfigInformation, CFGArg OK",
			b: []byte{
				0x10, 0, 0, 1, 2, 1, 0, 0, 0, 10,
				0, 10, 0, 1, 0, 0x11, 0, 3, 'f', 'o', 'o',
			},
			h: &Header{
				Version: Version,
				Shelf:   1,
				Slot:    2,
				Command: CommandQueryConfigInformation,
				Tag:     [4]byte{0, 0, 0, 10},
				Arg: &CFGArg{
					QueueLen: 10,
					Firmware: 1,
					Version:  Version,
					Command:  1,
					DataLen:  3,
					Data:     []byte("foo"),
				},
			},
		},
	}

	for i, tt := range tests {
		h := new(Header)
		if err := h.UnmarshalBinary(tt.b); err != nil || tt.err != nil {
			if want, got := tt.err, err; want != got {
				t.Fatalf("[%02d] test %q, unexpected error: %v != %v",
					i, tt.desc, want, got)
			}

			continue
		}

		if want, got := tt.h, h; !reflect.DeepEqual(want, got) {
			t.Fatalf("[%02d] test %q, unexpected Header:\n- want: %v\n-  got: %v",
				i, tt.desc, want, got)
		}
	}
}

func TestHeaderUnmarshalAndMarshalBinary(t *testing.T) {
	var tests = []struct {
		desc string
		b    []byte
	}{
		{
			desc: "header with CommandIssueATACommand, ATAArg OK",
			b: []byte{
				0x10, 0, 0, 1, 2, 0, 0, 0, 0, 10,
				0x43, 1, 2, 3, 6, 6, 6, 6, 6, 6, 0, 0, 'f', 'o', 'o',
			},
		},
		{
			desc: "header with CommandQueryConfigInformation, CFGArg OK",
			b: []byte{
				0x10, 0, 0, 1, 2, 1, 0, 0, 0, 10,
				0, 10, 0, 1, 0, 0x11, 0, 3, 'f', 'o', 'o',
			},
		},
	}

	for i, tt := range tests {
		h := new(Header)
		if err := h.UnmarshalBinary(tt.b); err != nil {
			t.Fatalf("[%02d] unmarshal test %q, %v", i, tt.desc, err)
		}

		b, err := h.MarshalBinary()
		if err != nil {
			t.Fatalf("[%02d] marshal test %q, %v", i, tt.desc, err)
		}

		if want, got := tt.b, b; !bytes.Equal(want, got) {
			t.Fatalf("[%02d] test %q, unexpected bytes:\n- want: %v\n-  got: %v",
				i, tt.desc, want, got)
		}
	}
}

type errArg struct {
	err error
	noopArg
}

func (a errArg) MarshalBinary() ([]byte, error) {
	return nil, a.err
}

type noopArg struct{}

func (noopArg) MarshalBinary() ([]byte, error) {
	return nil, nil
}
func (noopArg) UnmarshalBinary(b []byte) error {
	return nil
}
