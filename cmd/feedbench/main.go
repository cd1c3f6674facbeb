package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/albumy/config"
	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// feedbench 构造关注图，测量读时扇出的首页查询与热门标签聚合
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	authors := envInt("AUTHORS", 200)
	photosPer := envInt("PHOTOS", 20)
	readers := envInt("READERS", 500)
	follows := envInt("FOLLOWS", 50)
	reads := envInt("READS", 1000)
	page := envInt("PAGE", 12)

	ctx := context.Background()
	store := repository.NewStore(db)
	feed := service.NewFeedService(store, cfg.Database.StatementTimeout, service.FeedOptions{PhotoPerPage: page})

	seedStart := time.Now()
	authorIDs := make([]string, authors)
	tagIDs := make([]string, 0, 32)
	for i := 0; i < 32; i++ {
		tag := must(store.Tags.FindOrCreate(ctx, fmt.Sprintf("bench%02d", i)))
		tagIDs = append(tagIDs, tag.ID)
	}
	base := time.Now().Add(-time.Duration(authors*photosPer) * time.Minute)
	n := 0
	for i := 0; i < authors; i++ {
		u := &model.User{Name: "author", Email: fmt.Sprintf("author%d-%d@bench.local", i, seedStart.UnixNano()),
			Username: fmt.Sprintf("a%d%d", i, seedStart.Unix()%100000), PasswordHash: "x", Role: model.RoleUser, Confirmed: true}
		if err := store.Users.Create(ctx, u); err != nil {
			panic(err)
		}
		authorIDs[i] = u.ID
		for j := 0; j < photosPer; j++ {
			n++
			p := &model.Photo{AuthorID: u.ID, Filename: "bench.jpg", CanComment: true, CreatedAt: base.Add(time.Duration(n) * time.Minute)}
			if err := store.Photos.Create(ctx, p); err != nil {
				panic(err)
			}
			// 前几个标签明显更热
			idx := int(float64(len(tagIDs)) * math.Pow(rand.Float64(), 3))
			_ = store.Tags.Attach(ctx, p.ID, tagIDs[idx])
		}
	}

	readerIDs := make([]string, readers)
	for i := 0; i < readers; i++ {
		u := &model.User{Name: "reader", Email: fmt.Sprintf("reader%d-%d@bench.local", i, seedStart.UnixNano()),
			Username: fmt.Sprintf("r%d%d", i, seedStart.Unix()%100000), PasswordHash: "x", Role: model.RoleUser, Confirmed: true}
		if err := store.Users.Create(ctx, u); err != nil {
			panic(err)
		}
		readerIDs[i] = u.ID
		for k := 0; k < follows && k < authors; k++ {
			_, _ = store.Follows.Create(ctx, u.ID, authorIDs[(i+k*7)%authors])
		}
	}
	seedDur := time.Since(seedStart)

	feedRecs := make([]time.Duration, 0, reads)
	for i := 0; i < reads; i++ {
		actor := service.Actor{ID: readerIDs[i%readers], Role: model.RoleUser, Confirmed: true}
		st := time.Now()
		if _, err := feed.Home(ctx, actor, 1+i%3, page); err != nil {
			panic(err)
		}
		feedRecs = append(feedRecs, time.Since(st))
	}

	trendRecs := make([]time.Duration, 0, 100)
	for i := 0; i < 100; i++ {
		st := time.Now()
		if _, err := feed.TrendingTags(ctx, 10); err != nil {
			panic(err)
		}
		trendRecs = append(trendRecs, time.Since(st))
	}

	fmt.Printf("AUTHORS=%d PHOTOS=%d READERS=%d FOLLOWS=%d READS=%d PAGE=%d\n", authors, photosPer, readers, follows, reads, page)
	fmt.Printf("Seed: %v\n", seedDur)
	fmt.Printf("Home feed: p50=%v p95=%v p99=%v\n", pct(feedRecs, 0.50), pct(feedRecs, 0.95), pct(feedRecs, 0.99))
	fmt.Printf("Trending tags: p50=%v p95=%v p99=%v\n", pct(trendRecs, 0.50), pct(trendRecs, 0.95), pct(trendRecs, 0.99))
}
