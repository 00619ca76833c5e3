package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
)

// The OMIE day-ahead results for Portugal are published as plain files
// named marginalpdbcpt_YYYYMMDD.N where N is a revision suffix, almost
// always .1.
const (
	omieParents     = "parents%5B0%5D=marginalpdbcpt"
	omieFileMarker  = "MARGINALPDBCPT"
	omieMaxVariants = 5
)

// omieClient downloads and parses OMIE day-ahead price files.
type omieClient struct {
	baseURL string
	http    *http.Client
}

func newOMIEClient(baseURL string, timeout time.Duration) *omieClient {
	return &omieClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *omieClient) downloadURL(day time.Time, variant int) string {
	return fmt.Sprintf("%s?%s&filename=marginalpdbcpt_%s.%d", c.baseURL, omieParents, day.Format("20060102"), variant)
}

// fetchFile tries the revision suffixes in order until one yields a
// valid file for the day.
func (c *omieClient) fetchFile(ctx context.Context, day time.Time) (string, error) {
	var lastErr error
	for variant := 1; variant <= omieMaxVariants; variant++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.downloadURL(day, variant), nil)
		if err != nil {
			return "", err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK && strings.Contains(string(body), omieFileMarker) {
			return string(body), nil
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("no OMIE file for %s: %w", day.Format("2006-01-02"), lastErr)
	}
	return "", fmt.Errorf("no OMIE file for %s", day.Format("2006-01-02"))
}

// parseOMIEFile converts the semicolon-separated file into an hourly
// curve. Lines look like "2024;01;16;1;86.59;86.59;" where the fields are
// year, month, day, hour 1..24 and the Portuguese price in €/MWh.
func parseOMIEFile(text string) []model.PricePoint {
	var out []model.PricePoint
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToUpper(line), omieFileMarker) {
			continue
		}
		var parts []string
		for _, p := range strings.Split(line, ";") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) < 5 {
			continue
		}
		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		day, err3 := strconv.Atoi(parts[2])
		hour, err4 := strconv.Atoi(parts[3])
		priceMWh, err5 := strconv.ParseFloat(strings.ReplaceAll(parts[4], ",", "."), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		// OMIE hours run 1..24; map to 0..23.
		hh := hour - 1
		if hh < 0 {
			hh = 0
		}
		if hh > 23 {
			hh = 23
		}
		out = append(out, model.PricePoint{
			TS:        time.Date(year, time.Month(month), day, hh, 0, 0, 0, time.UTC),
			EURPerKWh: priceMWh / 1000.0,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })
	return out
}

// pricesToday downloads and parses the curve for the day of now.
func (c *omieClient) pricesToday(ctx context.Context, now time.Time) ([]model.PricePoint, error) {
	text, err := c.fetchFile(ctx, now)
	if err != nil {
		return nil, err
	}
	return parseOMIEFile(text), nil
}
