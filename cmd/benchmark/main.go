package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	totalSpots  int
	workload    string
)

// Metrics
var (
	totalRequests uint64
	reserved      uint64
	released      uint64
	conflicts     uint64
	notFound      uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.IntVar(&totalSpots, "spots", 200, "Number of seeded spots")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	users := make([]string, concurrency)
	for i := range users {
		users[i] = fmt.Sprintf("bench-%d-%d", i, time.Now().UnixNano())
		if err := createUser(users[i]); err != nil {
			log.Fatalf("User setup failed: %v", err)
		}
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, users[i])
	}

	wg.Wait()
	printResults(time.Since(start))
}

func createUser(username string) error {
	q := url.Values{"username": {username}, "password": {"bench-secret"}}
	resp, err := http.Post(targetURL+"/user/create?"+q.Encode(), "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create user returned %d", resp.StatusCode)
	}
	return nil
}

func worker(wg *sync.WaitGroup, start time.Time, username string) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		spot := pickSpot()

		// Reserve; on success release immediately so the pool of
		// available spots stays roughly constant.
		if doPut(client, fmt.Sprintf("%s/parking/reserve/%d?username=%s", targetURL, spot, username), &reserved) {
			doPut(client, fmt.Sprintf("%s/parking/release/%d", targetURL, spot), &released)
		}
	}
}

func doPut(client *http.Client, u string, okCounter *uint64) bool {
	req, _ := http.NewRequest(http.MethodPut, u, nil)
	resp, err := client.Do(req)
	if err != nil {
		atomic.AddUint64(&failOther, 1)
		return false
	}
	defer resp.Body.Close()

	atomic.AddUint64(&totalRequests, 1)
	switch resp.StatusCode {
	case http.StatusOK:
		atomic.AddUint64(okCounter, 1)
		return true
	case http.StatusConflict:
		atomic.AddUint64(&conflicts, 1)
	case http.StatusNotFound:
		atomic.AddUint64(&notFound, 1)
	default:
		atomic.AddUint64(&failOther, 1)
	}
	return false
}

func pickSpot() int {
	if workload == "hotspot" {
		// Hotspot: 90% of traffic fights over spot 1
		if rand.Float32() < 0.90 {
			return 1
		}
	}
	return rand.Intn(totalSpots) + 1
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	res := atomic.LoadUint64(&reserved)
	rel := atomic.LoadUint64(&released)
	conf := atomic.LoadUint64(&conflicts)
	nf := atomic.LoadUint64(&notFound)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	conflictRate := float64(0)
	if total > 0 {
		conflictRate = float64(conf) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":          workload,
		"duration_sec":      d.Seconds(),
		"total_requests":    total,
		"throughput_tps":    tps,
		"reserved":          res,
		"released":          rel,
		"conflicts":         conf,
		"conflict_rate_pct": conflictRate,
		"not_found":         nf,
		"errors":            fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
