package wire

import (
	"encoding/json"
	"fmt"
)

// QuelleErrorKind discriminates the closed set of error shapes a guest's
// fallible export can report as its negative-length error payload. Values
// are the guest's Rust enum variant names verbatim (PascalCase), not a
// renamed string, since the wire shape is serde's default externally
// tagged representation and the host must decode exactly what a
// conformant guest emits.
type QuelleErrorKind string

const (
	QuelleErrorRequestFailed            QuelleErrorKind = "RequestFailed"
	QuelleErrorFilterVerificationFailed QuelleErrorKind = "FilterVerificationFailed"
	QuelleErrorUtf8Error                QuelleErrorKind = "Utf8Error"
	QuelleErrorParseFailed              QuelleErrorKind = "ParseFailed"
	QuelleErrorWasmAbiError             QuelleErrorKind = "WasmAbiError"
)

// QuelleError is the wire shape of the error object a guest export writes
// as its result payload when it returns a negative signed length. On the
// wire it is a closed, externally tagged union: a variant carrying data
// serializes as a single-key object {"<Variant>": <payload>}; the
// no-payload variant (Utf8Error) serializes as the bare string
// "Utf8Error". MarshalJSON/UnmarshalJSON implement that representation
// directly since encoding/json has no native sum-type support.
type QuelleError struct {
	Kind    QuelleErrorKind
	Message string        // FilterVerificationFailed / WasmAbiError payload
	Request *RequestError // RequestFailed payload
	Parse   *ParseError   // ParseFailed payload
}

// Error implements the error interface.
func (e *QuelleError) Error() string {
	switch e.Kind {
	case QuelleErrorRequestFailed:
		if e.Request != nil {
			return e.Request.Error()
		}
	case QuelleErrorParseFailed:
		if e.Parse != nil {
			return e.Parse.Error()
		}
	case QuelleErrorFilterVerificationFailed, QuelleErrorWasmAbiError:
		return e.Message
	}
	return string(e.Kind)
}

// MarshalJSON renders the externally tagged representation serde would
// produce for this enum.
func (e *QuelleError) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case QuelleErrorUtf8Error:
		return json.Marshal(string(e.Kind))
	case QuelleErrorRequestFailed:
		return json.Marshal(map[string]*RequestError{string(e.Kind): e.Request})
	case QuelleErrorParseFailed:
		return json.Marshal(map[string]*ParseError{string(e.Kind): e.Parse})
	case QuelleErrorFilterVerificationFailed, QuelleErrorWasmAbiError:
		return json.Marshal(map[string]string{string(e.Kind): e.Message})
	default:
		return nil, fmt.Errorf("wire: unknown QuelleError kind %q", e.Kind)
	}
}

// UnmarshalJSON decodes both shapes serde's externally tagged
// representation can produce for QuelleError: a bare string for the
// no-payload variant, or a single-key object for every other variant.
func (e *QuelleError) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if QuelleErrorKind(bare) != QuelleErrorUtf8Error {
			return fmt.Errorf("wire: unknown QuelleError variant %q", bare)
		}
		e.Kind = QuelleErrorUtf8Error
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("wire: decoding QuelleError: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("wire: QuelleError must have exactly one variant tag, got %d", len(tagged))
	}

	for tag, payload := range tagged {
		kind := QuelleErrorKind(tag)
		switch kind {
		case QuelleErrorRequestFailed:
			var req RequestError
			if err := json.Unmarshal(payload, &req); err != nil {
				return fmt.Errorf("wire: decoding RequestFailed payload: %w", err)
			}
			e.Kind, e.Request = kind, &req
		case QuelleErrorParseFailed:
			var parse ParseError
			if err := json.Unmarshal(payload, &parse); err != nil {
				return fmt.Errorf("wire: decoding ParseFailed payload: %w", err)
			}
			e.Kind, e.Parse = kind, &parse
		case QuelleErrorFilterVerificationFailed, QuelleErrorWasmAbiError:
			var msg string
			if err := json.Unmarshal(payload, &msg); err != nil {
				return fmt.Errorf("wire: decoding %s payload: %w", tag, err)
			}
			e.Kind, e.Message = kind, msg
		default:
			return fmt.Errorf("wire: unknown QuelleError variant %q", tag)
		}
	}
	return nil
}

// ParseErrorKind discriminates the closed set of reasons a guest's own
// page-parsing logic (outside the host ABI) can fail. As with
// QuelleErrorKind, values are the guest's Rust enum variant names.
type ParseErrorKind string

const (
	ParseErrorElementNotFound ParseErrorKind = "ElementNotFound"
	ParseErrorSerializeFailed ParseErrorKind = "SerializeFailed"
	ParseErrorFailedURLParse  ParseErrorKind = "FailedURLParse"
	ParseErrorParseIntError   ParseErrorKind = "ParseIntError"
	ParseErrorOther           ParseErrorKind = "Other"
)

// ParseError is a guest-originated parsing failure, nested inside a
// QuelleError when Kind is QuelleErrorParseFailed. Like QuelleError, it is
// a closed externally tagged union: the four no-payload variants
// serialize as bare strings, and Other serializes as {"Other": "message"}.
type ParseError struct {
	Kind    ParseErrorKind
	Message string // Other payload
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Kind == ParseErrorOther {
		return e.Message
	}
	return string(e.Kind)
}

// MarshalJSON renders the externally tagged representation serde would
// produce for this enum.
func (e *ParseError) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ParseErrorOther:
		return json.Marshal(map[string]string{string(ParseErrorOther): e.Message})
	case ParseErrorElementNotFound, ParseErrorSerializeFailed, ParseErrorFailedURLParse, ParseErrorParseIntError:
		return json.Marshal(string(e.Kind))
	default:
		return nil, fmt.Errorf("wire: unknown ParseError kind %q", e.Kind)
	}
}

// UnmarshalJSON decodes both shapes serde's externally tagged
// representation can produce for ParseError.
func (e *ParseError) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		switch ParseErrorKind(bare) {
		case ParseErrorElementNotFound, ParseErrorSerializeFailed, ParseErrorFailedURLParse, ParseErrorParseIntError:
			e.Kind = ParseErrorKind(bare)
			return nil
		default:
			return fmt.Errorf("wire: unknown ParseError variant %q", bare)
		}
	}

	var tagged map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("wire: decoding ParseError: %w", err)
	}
	msg, ok := tagged[string(ParseErrorOther)]
	if !ok || len(tagged) != 1 {
		return fmt.Errorf("wire: unknown ParseError shape")
	}
	e.Kind, e.Message = ParseErrorOther, msg
	return nil
}

// DecodeQuelleError unmarshals a guest-reported error payload. It is used
// by the runtime package when a guest export's signed length return is
// negative.
func DecodeQuelleError(data []byte) (*QuelleError, error) {
	var e QuelleError
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
