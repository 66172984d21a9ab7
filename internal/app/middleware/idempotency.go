package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"driveshare/internal/app/commands"
	domainavailability "driveshare/internal/domain/availability"
)

// IdempotentCommand must be implemented by commands that want idempotency
// guarantees. Callers supply the key (typically an Idempotency-Key header)
// and the store deduplicates replays, which is how a booking retry returns
// the original reservation instead of a conflict against itself.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

// IdempotencyRecord snapshots one command outcome. Failed outcomes keep
// the error kind and detail so a replayed rejection carries the same
// typed error, and thus the same HTTP status, as the first attempt.
type IdempotencyRecord struct {
	Key         string
	Payload     []byte
	Error       string
	ErrorKind   string
	ErrorDetail []byte
	OccurredAt  time.Time
}

const (
	errorKindConflict    = "availability_conflict"
	errorKindMinDuration = "minimum_duration"
)

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Error != "" {
					return nil, rehydrateError(rec)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				record.Error = err.Error()
				record.ErrorKind, record.ErrorDetail = classifyError(err)
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func classifyError(err error) (string, []byte) {
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		if detail, mErr := json.Marshal(conflict); mErr == nil {
			return errorKindConflict, detail
		}
	}
	if errors.Is(err, domainavailability.ErrMinimumDuration) {
		return errorKindMinDuration, nil
	}
	return "", nil
}

func rehydrateError(rec IdempotencyRecord) error {
	switch rec.ErrorKind {
	case errorKindConflict:
		var conflict domainavailability.ConflictError
		if json.Unmarshal(rec.ErrorDetail, &conflict) == nil {
			return &conflict
		}
	case errorKindMinDuration:
		return domainavailability.ErrMinimumDuration
	}
	return errors.New(rec.Error)
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
