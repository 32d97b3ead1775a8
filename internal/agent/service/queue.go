package service

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zjrosen/headless/internal/log"
)

// QueueSummary reports one processed queue file.
type QueueSummary struct {
	Path         string
	ArchivedPath string
	Results      []TaskResult
	Interrupted  bool
}

// ReadQueueFile parses a queue file into prompts. Blank lines and lines
// starting with '#' are skipped; everything else is one prompt per line.
func ReadQueueFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queue file: %w", err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}
	return prompts, nil
}

// ProcessQueue runs every prompt in the queue file sequentially. On
// clean completion the file is archived so a rerun cannot process it
// twice. A shutdown request stops the queue between tasks and leaves
// the file in place so the remaining prompts run on the next pass.
func (s *Service) ProcessQueue(ctx context.Context, path string) (QueueSummary, error) {
	summary := QueueSummary{Path: path}

	prompts, err := ReadQueueFile(path)
	if err != nil {
		return summary, err
	}
	log.Info(log.CatQueue, "queue loaded", "path", path, "tasks", len(prompts))

	batch := time.Now().Unix()
	for i, prompt := range prompts {
		if s.ShutdownRequested() || ctx.Err() != nil {
			summary.Interrupted = true
			log.Info(log.CatQueue, "queue interrupted",
				"path", path, "completed", i, "remaining", len(prompts)-i)
			break
		}

		id := fmt.Sprintf("queue-%04d-%d", i+1, batch)
		result := s.RunTask(ctx, id, prompt)
		summary.Results = append(summary.Results, result)
		log.Info(log.CatQueue, "task finished",
			"task", id, "status", string(result.Status), "attempts", result.Attempts,
			"cost", fmt.Sprintf("%.4f", result.CostUSD))
	}

	if summary.Interrupted {
		return summary, nil
	}

	archived := fmt.Sprintf("%s.done-%d", path, batch)
	if err := os.Rename(path, archived); err != nil {
		return summary, fmt.Errorf("archive queue file: %w", err)
	}
	summary.ArchivedPath = archived
	return summary, nil
}
