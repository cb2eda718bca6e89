package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"wellness-progression/services"

	"github.com/gofiber/fiber/v2"
)

const streamPollInterval = 2 * time.Second

// streamPoints pushes the user's new ledger rows as server-sent events.
func streamPoints(points *services.PointsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := currentUser(c)
		ctx := c.UserContext()
		done := c.Context().Done()

		// SSE headers
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		// only rows written after the client connected
		cursor := time.Now().UTC()

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ticker := time.NewTicker(streamPollInterval)
			defer ticker.Stop()

			// initial keepalive
			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-ticker.C:
					txs, err := points.TransactionsSince(ctx, userID, cursor)
					if err != nil {
						log.Printf("⚠️  [SSE] Ledger query failed for %s: %v", userID, err)
						continue
					}
					if len(txs) == 0 {
						w.WriteString(":\n\n")
					}
					for _, tx := range txs {
						payload, _ := json.Marshal(tx)
						fmt.Fprintf(w, "event: points\ndata: %s\n\n", payload)
						cursor = tx.CreatedAt
					}
					if err := w.Flush(); err != nil {
						// client disconnected
						return
					}
				case <-done:
					return
				}
			}
		})
		return nil
	}
}
