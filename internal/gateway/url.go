package gateway

import (
	"strconv"
	"strings"

	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

const maxSenderLength = 12

// BuildURL assembles the provider endpoint for resource from cfg:
// https when SSL is set, the server trimmed of slashes and an optional port.
func BuildURL(cfg models.GatewayConfig, resource string) string {
	scheme := "http"
	if cfg.SSL {
		scheme = "https"
	}
	host := strings.Trim(strings.TrimSpace(cfg.Server), `/\`)
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	if cfg.Port > 0 {
		host += ":" + strconv.Itoa(cfg.Port)
	}
	return scheme + "://" + host + "/" + strings.TrimLeft(resource, "/")
}

// CleanSender truncates the sender to 12 characters and removes spaces.
func CleanSender(sender string) string {
	runes := []rune(sender)
	if len(runes) > maxSenderLength {
		runes = runes[:maxSenderLength]
	}
	return strings.ReplaceAll(string(runes), " ", "")
}

// Batches splits recipients into consecutive chunks of at most size entries.
// A non-positive size yields a single batch.
func Batches(recipients []string, size int) [][]string {
	if len(recipients) == 0 {
		return nil
	}
	if size <= 0 || size >= len(recipients) {
		return [][]string{recipients}
	}
	out := make([][]string, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := start + size
		if end > len(recipients) {
			end = len(recipients)
		}
		out = append(out, recipients[start:end])
	}
	return out
}
