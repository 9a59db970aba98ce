package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name     string
		err      *DecodeError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with offset",
			err:      &DecodeError{Field: "varint: row id", Offset: 3, Err: ErrTruncated},
			wantMsg:  "decoding varint: row id at offset 3: truncated",
			wantBase: ErrTruncated,
		},
		{
			name:     "without offset",
			err:      &DecodeError{Field: "record header", Offset: -1, Err: ErrMalformedRecord},
			wantMsg:  "decoding record header: malformed record",
			wantBase: ErrMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
		})
	}

	t.Run("survives wrapping", func(t *testing.T) {
		err := Wrap(NewDecode("serial type", 7, ErrUnsupportedSerialType), "page 3 cell 0")
		if !Is(err, ErrUnsupportedSerialType) {
			t.Errorf("Is() lost the sentinel through Wrap: %v", err)
		}
		var de *DecodeError
		if !As(err, &de) || de.Field != "serial type" {
			t.Errorf("As() = %+v, want Field=serial type", de)
		}
	})
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "table", ID: "apples"},
			wantMsg:  "table not found: apples",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "index"},
			wantMsg:  "index not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := ErrMissingRootPage
		err := &NotFoundError{Resource: "root page", ID: "view v", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "where", Message: "column color does not exist"},
			wantMsg:  "validation failed for where: column color does not exist",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "cannot mix COUNT(*) with columns"},
			wantMsg:  "validation failed: cannot mix COUNT(*) with columns",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "with underlying sentinel",
			err:      &ValidationError{Field: "select", Message: "no such column", Err: ErrUnresolvedColumn},
			wantMsg:  "validation failed for select: no such column",
			wantBase: ErrUnresolvedColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/test/sample.db", Err: baseErr},
			wantMsg: "failed to read /test/sample.db: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "decompress", Err: baseErr},
			wantMsg: "failed to decompress: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with input",
			err:      &ParseError{Format: "SQL", Input: "SELEC x", Message: "unexpected token"},
			wantMsg:  `failed to parse SQL "SELEC x": unexpected token`,
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without input",
			err:      &ParseError{Format: "file header", Message: "bad magic"},
			wantMsg:  "failed to parse file header: bad magic",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name     string
		err      *UnsupportedError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with reason",
			err:      &UnsupportedError{Feature: "table scan", Reason: "WITHOUT ROWID table"},
			wantMsg:  "unsupported table scan: WITHOUT ROWID table",
			wantBase: ErrUnsupported,
		},
		{
			name:     "without reason",
			err:      &UnsupportedError{Feature: "text encoding"},
			wantMsg:  "unsupported text encoding",
			wantBase: ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewDecode", func(t *testing.T) {
		err := NewDecode("u32: left child", 0, ErrTruncated)
		if err.Field != "u32: left child" || err.Offset != 0 || err.Err != ErrTruncated {
			t.Errorf("NewDecode() = %+v, unexpected values", err)
		}
	})

	t.Run("NewNotFound", func(t *testing.T) {
		err := NewNotFound("table", "oranges")
		if err.Resource != "table" || err.ID != "oranges" {
			t.Errorf("NewNotFound() = %+v, want Resource=table, ID=oranges", err)
		}
	})

	t.Run("NewValidation", func(t *testing.T) {
		err := NewValidation("where", "unknown column")
		if err.Field != "where" || err.Message != "unknown column" {
			t.Errorf("NewValidation() = %+v, unexpected values", err)
		}
	})

	t.Run("NewIO", func(t *testing.T) {
		baseErr := fmt.Errorf("short read")
		err := NewIO("read page", "/tmp/test.db", baseErr)
		if err.Operation != "read page" || err.Path != "/tmp/test.db" || err.Err != baseErr {
			t.Errorf("NewIO() = %+v, unexpected values", err)
		}
	})

	t.Run("NewParse", func(t *testing.T) {
		err := NewParse("SQL", "CREATE", "unexpected EOF")
		if err.Format != "SQL" || err.Input != "CREATE" || err.Message != "unexpected EOF" {
			t.Errorf("NewParse() = %+v, unexpected values", err)
		}
	})

	t.Run("NewUnsupported", func(t *testing.T) {
		err := NewUnsupported("page size", "not a power of two")
		if err.Feature != "page size" || err.Reason != "not a power of two" {
			t.Errorf("NewUnsupported() = %+v, unexpected values", err)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		wrapped := Wrap(ErrTruncated, "reading page 2")
		if wrapped == nil {
			t.Fatal("Wrap() returned nil")
		}
		if !errors.Is(wrapped, ErrTruncated) {
			t.Errorf("Wrap() error does not unwrap to base error")
		}
		wantMsg := "reading page 2: truncated"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrap(nil, "context"); got != nil {
			t.Errorf("Wrap(nil) = %v, want nil", got)
		}
	})
}

func TestWrapf(t *testing.T) {
	t.Run("wraps error with formatting", func(t *testing.T) {
		wrapped := Wrapf(ErrMalformedRecord, "cell %d on page %d", 4, 9)
		if !errors.Is(wrapped, ErrMalformedRecord) {
			t.Errorf("Wrapf() error does not unwrap to base error")
		}
		wantMsg := "cell 4 on page 9: malformed record"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrapf(nil, "context %s", "test"); got != nil {
			t.Errorf("Wrapf(nil) = %v, want nil", got)
		}
	})
}
