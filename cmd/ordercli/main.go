// ordercli читает JSON заказа из stdin и отправляет его работающему
// сервису. Удобно для ручной проверки и нагрузочных скриптов:
//
//	echo '{"user_key":"u1","user_name":"Tom","items":"0FCB x5"}' | ordercli
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", envOr("ISLAND_ADDR", "http://localhost:8080"), "server base URL")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	flag.Parse()

	var payload map[string]any
	if err := json.NewDecoder(os.Stdin).Decode(&payload); err != nil {
		log.Fatalf("read json from stdin: %v", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Post(*addr+"/api/order", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("post order: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	log.Printf("status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
