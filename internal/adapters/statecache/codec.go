package statecache

import (
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope layout. Every state file is a sequence of protowire fields in this order.
const (
	fieldMagic         protowire.Number = 1
	fieldFormatVersion protowire.Number = 2
	fieldKind          protowire.Number = 3
	fieldSchemaVersion protowire.Number = 4
	fieldPayload       protowire.Number = 5
	fieldChecksum      protowire.Number = 6
)

const (
	fileMagic     = "STSH"
	formatVersion = 1
)

// envelope is the decoded frame around a blob payload.
type envelope struct {
	Kind          domain.StateKind
	SchemaVersion uint32
	Payload       []byte
}

func encodeEnvelope(env envelope) []byte {
	buf := make([]byte, 0, len(env.Payload)+len(env.Kind)+32)
	buf = protowire.AppendTag(buf, fieldMagic, protowire.BytesType)
	buf = protowire.AppendString(buf, fileMagic)
	buf = protowire.AppendTag(buf, fieldFormatVersion, protowire.VarintType)
	buf = protowire.AppendVarint(buf, formatVersion)
	buf = protowire.AppendTag(buf, fieldKind, protowire.BytesType)
	buf = protowire.AppendString(buf, string(env.Kind))
	buf = protowire.AppendTag(buf, fieldSchemaVersion, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(env.SchemaVersion))
	buf = protowire.AppendTag(buf, fieldPayload, protowire.BytesType)
	buf = protowire.AppendBytes(buf, env.Payload)
	buf = protowire.AppendTag(buf, fieldChecksum, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, xxhash.Sum64(env.Payload))
	return buf
}

// decodeEnvelope parses data. Unknown fields are skipped so newer writers can add fields
// without breaking older readers; a missing required field is an error.
func decodeEnvelope(data []byte) (envelope, error) {
	var (
		env      envelope
		checksum uint64
		seen     = make(map[protowire.Number]bool, 6)
	)

	if !hasMagic(data) {
		return envelope{}, domain.ErrStateBadMagic
	}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return envelope{}, parseError(n)
		}
		data = data[n:]

		if want, known := fieldTypes[num]; known && typ != want {
			return envelope{}, zerr.With(domain.ErrStateDecodeFailed, "field", int(num))
		}

		switch num {
		case fieldMagic:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return envelope{}, parseError(m)
			}
			if string(v) != fileMagic {
				return envelope{}, domain.ErrStateBadMagic
			}
			n = m
		case fieldFormatVersion:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return envelope{}, parseError(m)
			}
			if v != formatVersion {
				return envelope{}, zerr.With(domain.ErrStateFormatUnsupported, "format_version", v)
			}
			n = m
		case fieldKind:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return envelope{}, parseError(m)
			}
			env.Kind = domain.StateKind(v)
			n = m
		case fieldSchemaVersion:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return envelope{}, parseError(m)
			}
			env.SchemaVersion = uint32(v) //nolint:gosec // Written from a uint32
			n = m
		case fieldPayload:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return envelope{}, parseError(m)
			}
			env.Payload = append([]byte(nil), v...)
			n = m
		case fieldChecksum:
			v, m := protowire.ConsumeFixed64(data)
			if m < 0 {
				return envelope{}, parseError(m)
			}
			checksum = v
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return envelope{}, parseError(n)
			}
		}
		seen[num] = true
		data = data[n:]
	}

	for _, num := range []protowire.Number{
		fieldMagic, fieldFormatVersion, fieldKind, fieldSchemaVersion, fieldPayload, fieldChecksum,
	} {
		if !seen[num] {
			return envelope{}, zerr.With(domain.ErrStateMissingField, "field", int(num))
		}
	}

	if xxhash.Sum64(env.Payload) != checksum {
		return envelope{}, domain.ErrStateChecksumMismatch
	}

	return env, nil
}

var fieldTypes = map[protowire.Number]protowire.Type{
	fieldMagic:         protowire.BytesType,
	fieldFormatVersion: protowire.VarintType,
	fieldKind:          protowire.BytesType,
	fieldSchemaVersion: protowire.VarintType,
	fieldPayload:       protowire.BytesType,
	fieldChecksum:      protowire.Fixed64Type,
}

// hasMagic reports whether data opens with the magic field.
func hasMagic(data []byte) bool {
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 || num != fieldMagic || typ != protowire.BytesType {
		return false
	}
	v, m := protowire.ConsumeBytes(data[n:])
	return m >= 0 && string(v) == fileMagic
}

func parseError(n int) error {
	return zerr.Wrap(protowire.ParseError(n), domain.ErrStateDecodeFailed.Error())
}
