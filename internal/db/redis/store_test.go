package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/prdrag/internal/db"
)

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, s *Store) error
		want []string
		rep  rueidis.RedisMessage
	}{
		{
			name: "ping",
			call: func(ctx context.Context, s *Store) error { return s.Ping(ctx) },
			want: []string{"PING"},
			rep:  mock.RedisString("PONG"),
		},
		{
			name: "set",
			call: func(ctx context.Context, s *Store) error { return s.Set(ctx, "mykey", []byte("myvalue")) },
			want: []string{"SET", "mykey", "myvalue"},
			rep:  mock.RedisString("OK"),
		},
		{
			name: "set with ttl",
			call: func(ctx context.Context, s *Store) error {
				return s.SetWithTTL(ctx, "mykey", []byte("myvalue"), time.Minute)
			},
			want: []string{"SET", "mykey", "myvalue", "EX", "60"},
			rep:  mock.RedisString("OK"),
		},
		{
			name: "incrby",
			call: func(ctx context.Context, s *Store) error { return s.IncrBy(ctx, "counter", 5) },
			want: []string{"INCRBY", "counter", "5"},
			rep:  mock.RedisInt64(5),
		},
		{
			name: "expire",
			call: func(ctx context.Context, s *Store) error { return s.Expire(ctx, "mykey", 5*time.Minute, false) },
			want: []string{"EXPIRE", "mykey", "300"},
			rep:  mock.RedisInt64(1),
		},
		{
			name: "expire nx",
			call: func(ctx context.Context, s *Store) error { return s.Expire(ctx, "mykey", 5*time.Minute, true) },
			want: []string{"EXPIRE", "mykey", "300", "NX"},
			rep:  mock.RedisInt64(1),
		},
		{
			name: "expire rounds sub-second ttl up",
			call: func(ctx context.Context, s *Store) error { return s.Expire(ctx, "mykey", 300*time.Millisecond, true) },
			want: []string{"EXPIRE", "mykey", "1", "NX"},
			rep:  mock.RedisInt64(1),
		},
		{
			name: "expire rounds partial seconds up",
			call: func(ctx context.Context, s *Store) error { return s.Expire(ctx, "mykey", 1500*time.Millisecond, false) },
			want: []string{"EXPIRE", "mykey", "2"},
			rep:  mock.RedisInt64(1),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match(tc.want...)).Return(mock.Result(tc.rep))

			if err := tc.call(context.Background(), NewStoreForTest(c)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCommands_ErrorCarriesOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "counter", "1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	err := NewStoreForTest(c).IncrBy(context.Background(), "counter", 1)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpIncrBy {
		t.Fatalf("expected db.Error with op INCRBY, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DeadlineExceeded, got %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Fatalf("expected db.Error with op PING, got %v", err)
	}
}

func TestMGet_Mixed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("MGET", "k1", "k2", "k3")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisBlobString("one"),
			mock.RedisNil(),
			mock.RedisBlobString("three"),
		)))

	s := NewStoreForTest(c)
	vals, err := s.MGet(context.Background(), []string{"k1", "k2", "k3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vals))
	}
	if string(vals[0]) != "one" || vals[1] != nil || string(vals[2]) != "three" {
		t.Errorf("unexpected values: %q", vals)
	}
}

func TestMGet_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	vals, err := s.MGet(context.Background(), nil)
	if err != nil || vals != nil {
		t.Fatalf("expected nil, nil; got %v, %v", vals, err)
	}
}

func TestMGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("MGET", "k1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.MGet(context.Background(), []string{"k1"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpMGet {
		t.Fatalf("expected db.Error with op MGET, got %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected an error without addrs")
	}
}

func TestWaitForReady_ImmediatePing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG"))).
		Times(1)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_RetriesUntilReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("LOADING"))).
			Times(2),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	refused := errors.New("connection refused")
	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(refused)).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !errors.Is(err, refused) {
		t.Errorf("timeout error should carry the last ping error, got %v", err)
	}
}

func TestKeyPrefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "prdrag:emb:abc"
		})).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("MGET", "prdrag:a", "prdrag:b")).
		Return(mock.Result(mock.RedisArray(mock.RedisBlobString("1"), mock.RedisNil())))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "prdrag:budget:x", "7")).
		Return(mock.Result(mock.RedisInt64(7)))

	s := &Store{client: c, prefix: DefaultKeyPrefix}
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "emb:abc", []byte("v"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	vals, err := s.MGet(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if string(vals[0]) != "1" || vals[1] != nil {
		t.Errorf("unexpected values %q", vals)
	}
	if err := s.IncrBy(ctx, "budget:x", 7); err != nil {
		t.Fatalf("IncrBy: %v", err)
	}
}
