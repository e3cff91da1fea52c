package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/hillwalk/munroquery/internal/db"
)

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreWithClient(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreWithClient(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisString(`{"lat":56.6}`)))

	s := NewStoreWithClient(c)
	data, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"lat":56.6}` {
		t.Errorf("unexpected value: %s", data)
	}
}

func TestGet_Miss(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreWithClient(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.ErrorResult(errors.New("connection reset")))

	s := NewStoreWithClient(c)
	_, err := s.Get(context.Background(), "mykey")

	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *db.Error, got %v", err)
	}
	if dbErr.Op != db.OpGet {
		t.Errorf("op = %q", dbErr.Op)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "value")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreWithClient(c)
	if err := s.Set(context.Background(), "mykey", []byte("value")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "mykey" && cmd[3] == "EX" && cmd[4] == "3600"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreWithClient(c)
	if err := s.SetWithTTL(context.Background(), "mykey", []byte("value"), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "mykey")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreWithClient(c)
	if err := s.Del(context.Background(), "mykey"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HSET", "munroquery:hill:1", "name", "Ben Lomond")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreWithClient(c)
	err := s.HSet(context.Background(), "munroquery:hill:1", map[string]string{"name": "Ben Lomond"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreWithClient(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f1": "v1"}},
		{Key: "k2", Fields: map[string]string{"f2": "v2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreWithClient(nil) // client not called
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_ErrorNamesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.ErrorResult(errors.New("connection reset")),
		})

	s := NewStoreWithClient(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	if err == nil || !strings.Contains(err.Error(), "k2") {
		t.Fatalf("expected error naming the failed key, got %v", err)
	}
}

func TestCreateIndex_SchemaArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	want := []string{
		"FT.CREATE", "hills:idx", "ON", "HASH", "PREFIX", "1", "hill:", "SCHEMA",
		"name", "TEXT", "WEIGHT", "3",
		"tags", "TAG", "SEPARATOR", ",",
		"grade", "NUMERIC",
	}
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if len(cmd) != len(want) {
				return false
			}
			for i := range cmd {
				if cmd[i] != want[i] {
					return false
				}
			}
			return true
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreWithClient(c)
	idx := &db.IndexDefinition{
		Name:     "hills:idx",
		Prefixes: []string{"hill:"},
		Fields: []db.IndexField{
			{Name: "name", Type: db.IndexFieldText, TextWeight: 3},
			{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "grade", Type: db.IndexFieldNumeric},
		},
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreWithClient(c)
	idx := &db.IndexDefinition{
		Name:   "hills:idx",
		Fields: []db.IndexField{{Name: "name", Type: db.IndexFieldText}},
	}
	if err := s.CreateIndex(context.Background(), idx); !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Validation(t *testing.T) {
	s := NewStoreWithClient(nil)
	ctx := context.Background()

	if err := s.CreateIndex(ctx, &db.IndexDefinition{Fields: []db.IndexField{{Name: "f"}}}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := s.CreateIndex(ctx, &db.IndexDefinition{Name: "idx"}); err == nil {
		t.Error("expected error for empty schema")
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "hills:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreWithClient(c)
	if err := s.DropIndex(context.Background(), "hills:idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "hills:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("hills:idx"))))

	s := NewStoreWithClient(c)
	exists, err := s.IndexExists(context.Background(), "hills:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected index to exist")
	}
}

func TestIndexExists_Absent(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "hills:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreWithClient(c)
	exists, err := s.IndexExists(context.Background(), "hills:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected index to be absent")
	}
}

func TestSearchText_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" || cmd[1] != "hills:idx" || cmd[2] != "(ridge*)" {
				return false
			}
			joined := strings.Join(cmd, " ")
			return strings.Contains(joined, "WITHSCORES") &&
				strings.Contains(joined, "LIMIT 0 50") &&
				strings.Contains(joined, "DIALECT 2")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("hill:3"),
			mock.RedisString("4.5"),
			mock.RedisArray(mock.RedisString("id"), mock.RedisString("3")),
			mock.RedisString("hill:1"),
			mock.RedisString("2.25"),
			mock.RedisArray(mock.RedisString("id"), mock.RedisString("1")),
		)))

	s := NewStoreWithClient(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName:    "hills:idx",
		Query:        "(ridge*)",
		TopK:         50,
		ReturnFields: []string{"id"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", result)
	}
	if result.Entries[0].Key != "hill:3" || result.Entries[0].Score != 4.5 {
		t.Errorf("unexpected first entry: %+v", result.Entries[0])
	}
	if result.Entries[1].Fields["id"] != "1" {
		t.Errorf("unexpected second entry fields: %v", result.Entries[1].Fields)
	}
}

func TestSearchText_NoHits(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreWithClient(c)
	result, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "hills:idx", Query: "(nothing)", TopK: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 || len(result.Entries) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestSearchText_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreWithClient(c)
	_, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "hills:idx", Query: "(ridge)", TopK: 10,
	})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := NewStoreWithClient(nil)
	ctx := context.Background()

	if _, err := s.SearchText(ctx, &db.TextQuery{Query: "q", TopK: 1}); err == nil {
		t.Error("expected error for missing index name")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", TopK: 1}); err == nil {
		t.Error("expected error for empty query")
	}
	if _, err := s.SearchText(ctx, &db.TextQuery{IndexName: "idx", Query: "q"}); err == nil {
		t.Error("expected error for topK=0")
	}
}
