package lock

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// fakeRedis keeps string keys in memory and understands the release script.
type fakeRedis struct {
	values map[string]string
	setErr error
	evals  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "set", key, value, "nx")
	if f.setErr != nil {
		cmd.SetErr(f.setErr)

		return cmd
	}

	if _, exists := f.values[key]; exists {
		cmd.SetVal(false)

		return cmd
	}

	f.values[key] = value.(string)
	cmd.SetVal(true)

	return cmd
}

func (f *fakeRedis) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.evals++
	cmd := redis.NewCmd(ctx)

	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		cmd.SetVal(int64(1))

		return cmd
	}

	cmd.SetVal(int64(0))

	return cmd
}

type LockTestSuite struct {
	suite.Suite
	ctx context.Context
}

func TestLockSuite(t *testing.T) {
	suite.Run(t, new(LockTestSuite))
}

func (s *LockTestSuite) SetupTest() {
	s.ctx = context.Background()
}

// ============================================================================
// LocalLocker
// ============================================================================

func (s *LockTestSuite) TestLocalLockerIsExclusive() {
	l := NewLocalLocker()

	release, ok, err := l.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	_, ok, err = l.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	_, ok, _ = l.TryLock(s.ctx, "bot-2", time.Minute)
	s.True(ok)

	release()
	release()

	_, ok, _ = l.TryLock(s.ctx, "bot-1", time.Minute)
	s.True(ok)
}

// ============================================================================
// RedisLocker
// ============================================================================

func (s *LockTestSuite) TestRedisLockerLeases() {
	fake := newFakeRedis()
	l := NewRedisLocker(fake, logger.NewNop())

	release, ok, err := l.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Contains(fake.values, keyPrefix+"bot-1")

	_, ok, err = l.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	release()
	s.NotContains(fake.values, keyPrefix+"bot-1")
	s.Equal(1, fake.evals)
}

func (s *LockTestSuite) TestRedisReleaseKeepsForeignLease() {
	fake := newFakeRedis()
	l := NewRedisLocker(fake, logger.NewNop())

	release, ok, err := l.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	// The lease expired and another replica took it.
	fake.values[keyPrefix+"bot-1"] = "other-token"

	release()
	s.Equal("other-token", fake.values[keyPrefix+"bot-1"])
}

func (s *LockTestSuite) TestRedisErrorIsTransient() {
	fake := newFakeRedis()
	fake.setErr = stdErrors.New("dial tcp: connection refused")
	l := NewRedisLocker(fake, logger.NewNop())

	release, ok, err := l.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().Error(err)
	s.False(ok)
	s.Nil(release)
	s.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
	s.True(errors.IsTransient(err))
}

// ============================================================================
// Chain
// ============================================================================

func (s *LockTestSuite) TestChainReleasesOnRefusal() {
	local := NewLocalLocker()
	fake := newFakeRedis()
	fake.values[keyPrefix+"bot-1"] = "held-elsewhere"

	chain := Chain{local, NewRedisLocker(fake, logger.NewNop())}

	_, ok, err := chain.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	// The local lease taken before the refusal was given back.
	_, ok, _ = local.TryLock(s.ctx, "bot-1", time.Minute)
	s.True(ok)
}

func (s *LockTestSuite) TestChainAcquiresAll() {
	local := NewLocalLocker()
	fake := newFakeRedis()
	chain := Chain{local, NewRedisLocker(fake, logger.NewNop())}

	release, ok, err := chain.TryLock(s.ctx, "bot-1", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	_, ok, _ = local.TryLock(s.ctx, "bot-1", time.Minute)
	s.False(ok)

	release()
	s.Empty(fake.values)

	_, ok, _ = local.TryLock(s.ctx, "bot-1", time.Minute)
	s.True(ok)
}
