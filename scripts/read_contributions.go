// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/siempreabierto/internal/domain"
	redisRepo "github.com/siempreabierto/internal/repository/redis"
	"go.uber.org/zap"
)

const pageSize = 50

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	stream := flag.String("stream", domain.StreamContributions, "Stream with contribution batches")
	from := flag.String("from", "", "Start reading after this message ID (default: from the beginning)")
	follow := flag.Bool("follow", false, "Keep polling for new batches")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	repo := redisRepo.NewStreamRepository(client, logger)

	n, err := repo.Len(ctx, *stream)
	if err != nil {
		log.Fatalf("Failed to get stream length: %v", err)
	}
	fmt.Printf("Stream: %s (%d batches)\n", *stream, n)

	start := "-"
	if *from != "" {
		start = "(" + *from
	}
	for {
		msgs, err := repo.ReadRange(ctx, *stream, start, pageSize)
		if err != nil {
			log.Fatalf("Failed to read stream: %v", err)
		}

		for _, msg := range msgs {
			var batch domain.ContributionBatchEvent
			if err := json.Unmarshal([]byte(msg.Data), &batch); err != nil {
				fmt.Printf("\n%s: bad payload: %v\n", msg.ID, err)
				continue
			}
			printBatch(msg.ID, batch)
		}
		if len(msgs) > 0 {
			// следующая страница начинается строго после последнего сообщения
			start = "(" + msgs[len(msgs)-1].ID
		}

		if len(msgs) < pageSize {
			if !*follow {
				return
			}
			time.Sleep(5 * time.Second)
		}
	}
}

func printBatch(id string, batch domain.ContributionBatchEvent) {
	fmt.Printf("\n%s batch=%s device=%s published=%s\n",
		id, batch.BatchID, batch.DeviceUserID, batch.PublishedAt.Format(time.RFC3339))
	for _, c := range batch.Contributions {
		fmt.Printf("   %-8s %-12s #%d by %s\n", c.Action, c.TargetType, c.TargetID, c.UserID)
	}
}
