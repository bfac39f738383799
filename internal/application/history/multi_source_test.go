package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiSource_MergesNewestFirst(t *testing.T) {
	explorer := staticSource("explorer", &service.FetchResult{
		Records: []*entity.RawLedgerRecord{nativeRecord("0x1", user, other, "1", fixedNow.Add(-time.Hour))},
	}, nil)
	chain := &fakeSource{
		name:  "chain",
		kinds: []entity.RecordKind{entity.RecordKindLog},
		fetch: func(context.Context, string) (*service.FetchResult, error) {
			return &service.FetchResult{Records: []*entity.RawLedgerRecord{
				{Kind: entity.RecordKindLog, Hash: "0x2", TimeStamp: unix(fixedNow)},
			}}, nil
		},
	}

	m := NewMultiSource(logger.NewNop(), explorer, chain)
	res, err := m.Fetch(context.Background(), user)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "0x2", res.Records[0].Hash)
	assert.False(t, res.Partial())
	assert.ElementsMatch(t, []entity.RecordKind{entity.RecordKindNative, entity.RecordKindToken, entity.RecordKindLog}, m.Kinds())
}

func TestMultiSource_FailedSourceMarksItsKinds(t *testing.T) {
	boom := errors.New("rpc unavailable")
	explorer := staticSource("explorer", &service.FetchResult{
		Records:  []*entity.RawLedgerRecord{nativeRecord("0x1", user, other, "1", fixedNow)},
		Failures: map[entity.RecordKind]error{entity.RecordKindToken: errors.New("tokentx failed")},
	}, nil)
	chain := &fakeSource{
		name:  "chain",
		kinds: []entity.RecordKind{entity.RecordKindLog},
		fetch: func(context.Context, string) (*service.FetchResult, error) { return nil, boom },
	}

	res, err := NewMultiSource(logger.NewNop(), explorer, chain).Fetch(context.Background(), user)
	require.NoError(t, err)

	assert.Len(t, res.Records, 1)
	assert.ErrorIs(t, res.Failures[entity.RecordKindLog], boom)
	assert.Contains(t, res.Failures, entity.RecordKindToken)
}

func TestMultiSource_AllFail(t *testing.T) {
	a := staticSource("a", nil, errors.New("a down"))
	b := staticSource("b", nil, errors.New("b down"))

	_, err := NewMultiSource(logger.NewNop(), a, b).Fetch(context.Background(), user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestMultiSource_ConfigurationErrorWins(t *testing.T) {
	a := staticSource("a", nil, service.ErrMissingCredential)
	b := staticSource("b", &service.FetchResult{}, nil)

	_, err := NewMultiSource(logger.NewNop(), a, b).Fetch(context.Background(), user)
	assert.ErrorIs(t, err, service.ErrMissingCredential)
}
