package regcache

import (
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/protobuf/encoding/protowire"
)

// Payload layout, schema version 1:
//
//	payload = { 1: entry }*        entries in insertion order
//	entry   = { 1: primary path, 2: secondary path }
const (
	fieldEntry     protowire.Number = 1
	fieldPrimary   protowire.Number = 1
	fieldSecondary protowire.Number = 2
)

// MarshalState implements statecache.Blob.
func (c *RegistrationCache) MarshalState() ([]byte, error) {
	var buf []byte
	for _, entry := range c.entries {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldPrimary, protowire.BytesType)
		msg = protowire.AppendString(msg, entry.PrimaryPath)
		msg = protowire.AppendTag(msg, fieldSecondary, protowire.BytesType)
		msg = protowire.AppendString(msg, entry.SecondaryPath)

		buf = protowire.AppendTag(buf, fieldEntry, protowire.BytesType)
		buf = protowire.AppendBytes(buf, msg)
	}
	return buf, nil
}

// UnmarshalState implements statecache.Blob. On error the cache is left unchanged.
func (c *RegistrationCache) UnmarshalState(data []byte) error {
	var entries []domain.RegistrationRecord

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return decodeError(n)
		}
		data = data[n:]

		if num != fieldEntry || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return decodeError(n)
			}
			data = data[n:]
			continue
		}

		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return decodeError(n)
		}
		data = data[n:]

		entry, err := unmarshalEntry(msg)
		if err != nil {
			return zerr.With(err, "entry", len(entries))
		}
		entries = append(entries, entry)
	}

	c.entries = entries
	return nil
}

func unmarshalEntry(msg []byte) (domain.RegistrationRecord, error) {
	var (
		entry                    domain.RegistrationRecord
		hasPrimary, hasSecondary bool
	)

	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return entry, decodeError(n)
		}
		msg = msg[n:]

		switch {
		case num == fieldPrimary && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(msg)
			if m < 0 {
				return entry, decodeError(m)
			}
			entry.PrimaryPath, hasPrimary = v, true
			n = m
		case num == fieldSecondary && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(msg)
			if m < 0 {
				return entry, decodeError(m)
			}
			entry.SecondaryPath, hasSecondary = v, true
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return entry, decodeError(n)
			}
		}
		msg = msg[n:]
	}

	if !hasPrimary || !hasSecondary {
		return entry, domain.ErrStateMissingField
	}
	return entry, nil
}

func decodeError(n int) error {
	return zerr.Wrap(protowire.ParseError(n), domain.ErrStateDecodeFailed.Error())
}
