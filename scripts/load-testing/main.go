package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

type LoadTestConfig struct {
	BaseURL             string
	ConcurrentUsers     int
	TestDurationSeconds int
	RampUpSeconds       int
}

type TestResult struct {
	TotalRequests       int64
	SuccessfulRequests  int64
	FailedRequests      int64
	CartMutations       int64
	SuccessfulCheckouts int64
	FailedCheckouts     int64
	ResponseTimes       []time.Duration
	Errors              map[string]int64
	mutex               sync.Mutex
}

type LoadTester struct {
	config     *LoadTestConfig
	result     *TestResult
	client     *http.Client
	products   []string
	cacheMutex sync.RWMutex
}

type productResponse struct {
	ID      string `json:"id"`
	InStock bool   `json:"in_stock"`
}

func NewLoadTester(config *LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		result: &TestResult{
			ResponseTimes: make([]time.Duration, 0),
			Errors:        make(map[string]int64),
		},
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: 100,
				MaxConnsPerHost:     200,
			},
		},
	}
}

func (lt *LoadTester) recordResponse(duration time.Duration, success bool, operation string, err error) {
	lt.result.mutex.Lock()
	defer lt.result.mutex.Unlock()

	atomic.AddInt64(&lt.result.TotalRequests, 1)
	lt.result.ResponseTimes = append(lt.result.ResponseTimes, duration)

	if success {
		atomic.AddInt64(&lt.result.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&lt.result.FailedRequests, 1)
		if err != nil {
			lt.result.Errors[fmt.Sprintf("%s: %s", operation, err.Error())]++
		}
	}
}

func (lt *LoadTester) refreshProducts() error {
	start := time.Now()
	resp, err := lt.client.Get(lt.config.BaseURL + "/api/v1/products")
	duration := time.Since(start)
	if err != nil {
		lt.recordResponse(duration, false, "list_products", err)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		lt.recordResponse(duration, false, "list_products", err)
		return err
	}

	var products []productResponse
	if err := json.Unmarshal(body, &products); err != nil {
		lt.recordResponse(duration, false, "list_products", err)
		return err
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		if p.InStock {
			ids = append(ids, p.ID)
		}
	}

	lt.cacheMutex.Lock()
	lt.products = ids
	lt.cacheMutex.Unlock()

	lt.recordResponse(duration, true, "list_products", nil)
	return nil
}

func (lt *LoadTester) randomProduct() (string, bool) {
	lt.cacheMutex.RLock()
	defer lt.cacheMutex.RUnlock()

	if len(lt.products) == 0 {
		return "", false
	}
	return lt.products[rand.Intn(len(lt.products))], true
}

func (lt *LoadTester) simulateBuyer(ctx context.Context, buyerID int, wg *sync.WaitGroup) {
	defer wg.Done()

	userID := fmt.Sprintf("load-buyer-%d", buyerID)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			lt.addToCart(userID)

			if rand.Intn(10) == 0 {
				lt.checkout(userID)
			} else if rand.Intn(5) == 0 {
				lt.snapshotCart(userID)
			}

			time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
		}
	}
}

func (lt *LoadTester) addToCart(userID string) {
	productID, ok := lt.randomProduct()
	if !ok {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"product_id": productID,
		"quantity":   1 + rand.Intn(5),
	})

	start := time.Now()
	resp, err := lt.client.Post(
		fmt.Sprintf("%s/api/v1/cart/items?user_id=%s", lt.config.BaseURL, userID),
		"application/json",
		bytes.NewReader(payload),
	)
	duration := time.Since(start)
	if err != nil {
		lt.recordResponse(duration, false, "add_to_cart", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	success := resp.StatusCode == http.StatusOK
	lt.recordResponse(duration, success, "add_to_cart", fmt.Errorf("status %d", resp.StatusCode))
	if success {
		atomic.AddInt64(&lt.result.CartMutations, 1)
	}
}

func (lt *LoadTester) snapshotCart(userID string) {
	start := time.Now()
	resp, err := lt.client.Get(fmt.Sprintf("%s/api/v1/cart?user_id=%s", lt.config.BaseURL, userID))
	duration := time.Since(start)
	if err != nil {
		lt.recordResponse(duration, false, "cart_snapshot", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	lt.recordResponse(duration, resp.StatusCode == http.StatusOK, "cart_snapshot", fmt.Errorf("status %d", resp.StatusCode))
}

func (lt *LoadTester) checkout(userID string) {
	start := time.Now()
	resp, err := lt.client.Post(
		fmt.Sprintf("%s/api/v1/checkout?user_id=%s", lt.config.BaseURL, userID),
		"application/json",
		nil,
	)
	duration := time.Since(start)
	if err != nil {
		lt.recordResponse(duration, false, "checkout", err)
		atomic.AddInt64(&lt.result.FailedCheckouts, 1)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusCreated {
		lt.recordResponse(duration, true, "checkout", nil)
		atomic.AddInt64(&lt.result.SuccessfulCheckouts, 1)
	} else {
		lt.recordResponse(duration, false, "checkout", fmt.Errorf("status %d", resp.StatusCode))
		atomic.AddInt64(&lt.result.FailedCheckouts, 1)
	}
}

func (lt *LoadTester) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(lt.config.TestDurationSeconds)*time.Second)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := lt.refreshProducts(); err != nil {
		fmt.Printf("Warning: failed to load product list: %v\n", err)
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				lt.refreshProducts()
			}
		}
	}()

	var wg sync.WaitGroup
	rampDelay := time.Duration(lt.config.RampUpSeconds) * time.Second / time.Duration(lt.config.ConcurrentUsers)

	start := time.Now()
	for i := 0; i < lt.config.ConcurrentUsers; i++ {
		wg.Add(1)
		go lt.simulateBuyer(ctx, i, &wg)
		time.Sleep(rampDelay)
	}

	wg.Wait()
	lt.printReport(time.Since(start))
}

func (lt *LoadTester) printReport(elapsed time.Duration) {
	lt.result.mutex.Lock()
	defer lt.result.mutex.Unlock()

	times := make([]time.Duration, len(lt.result.ResponseTimes))
	copy(times, lt.result.ResponseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	percentile := func(p float64) time.Duration {
		if len(times) == 0 {
			return 0
		}
		idx := int(float64(len(times)) * p)
		if idx >= len(times) {
			idx = len(times) - 1
		}
		return times[idx]
	}

	fmt.Printf("\n=== Load Test Report ===\n")
	fmt.Printf("Duration:             %s\n", elapsed.Round(time.Second))
	fmt.Printf("Total requests:       %d\n", lt.result.TotalRequests)
	fmt.Printf("Successful:           %d\n", lt.result.SuccessfulRequests)
	fmt.Printf("Failed:               %d\n", lt.result.FailedRequests)
	fmt.Printf("Cart mutations:       %d\n", lt.result.CartMutations)
	fmt.Printf("Successful checkouts: %d\n", lt.result.SuccessfulCheckouts)
	fmt.Printf("Failed checkouts:     %d\n", lt.result.FailedCheckouts)
	fmt.Printf("Throughput:           %.1f req/s\n", float64(lt.result.TotalRequests)/elapsed.Seconds())
	fmt.Printf("P50 response time:    %s\n", percentile(0.50))
	fmt.Printf("P95 response time:    %s\n", percentile(0.95))
	fmt.Printf("P99 response time:    %s\n", percentile(0.99))

	if len(lt.result.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for msg, count := range lt.result.Errors {
			fmt.Printf("  %6d  %s\n", count, msg)
		}
	}
}

func main() {
	config := &LoadTestConfig{
		BaseURL:             "http://localhost:8080",
		ConcurrentUsers:     100,
		TestDurationSeconds: 60,
		RampUpSeconds:       10,
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "light":
			config.ConcurrentUsers = 50
			config.TestDurationSeconds = 30
		case "heavy":
			config.ConcurrentUsers = 500
			config.TestDurationSeconds = 300
		case "stress":
			config.ConcurrentUsers = 1000
			config.TestDurationSeconds = 600
		}
	}

	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	fmt.Printf("Configuration:\n")
	fmt.Printf("- Base URL: %s\n", config.BaseURL)
	fmt.Printf("- Concurrent Users: %d\n", config.ConcurrentUsers)
	fmt.Printf("- Test Duration: %d seconds\n", config.TestDurationSeconds)
	fmt.Printf("- Ramp Up: %d seconds\n", config.RampUpSeconds)
	fmt.Printf("\nStarting test...\n\n")

	NewLoadTester(config).Run()
}
