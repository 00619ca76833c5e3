package pricing

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fleetai/fleetcharge/core/pricing"
)

// Info types accepted by the REN market-info service.
const (
	renInfoPrice15M    = "GetMarketPrice15M"
	renInfoPriceHourly = "GetMarketPrice"
)

const renSOAPAction = "https://ws-mercado.ren.pt/GetInfoForTimeFrameByInfoType"

// FetchError is a typed upstream failure carrying the market error
// taxonomy (GEN02 no data, GEN03 transport/general).
type FetchError struct {
	Code    string
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// renItem is one market price sample in €/MWh.
type renItem struct {
	TS        time.Time
	EURPerMWh float64
}

// renClient talks to the REN market-info SOAP service.
type renClient struct {
	endpoint string
	http     *http.Client
}

func newRENClient(endpoint string, timeout time.Duration) *renClient {
	return &renClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func renEnvelope(startDay, endDay, infoType string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:ws="https://ws-mercado.ren.pt">
  <soap:Header/>
  <soap:Body>
    <ws:GetInfoForTimeFrameByInfoType>
      <ws:StartDay>%s</ws:StartDay>
      <ws:EndDay>%s</ws:EndDay>
      <ws:InfoType>%s</ws:InfoType>
    </ws:GetInfoForTimeFrameByInfoType>
  </soap:Body>
</soap:Envelope>
`, startDay, endDay, infoType)
}

// marketPrices fetches the samples for one day and info type.
func (c *renClient) marketPrices(ctx context.Context, day string, infoType string) ([]renItem, *FetchError) {
	body := renEnvelope(day, day, infoType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &FetchError{Code: pricing.CodeGeneral, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", fmt.Sprintf("application/soap+xml; charset=utf-8; action=%q", renSOAPAction))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Code: pricing.CodeGeneral, Message: fmt.Sprintf("REN request failed: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Code: pricing.CodeGeneral, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Code: pricing.CodeGeneral, Message: fmt.Sprintf("read response: %v", err)}
	}

	inner, ferr := extractSOAPResult(raw)
	if ferr != nil {
		return nil, ferr
	}
	return parseMarketXML(inner)
}

// extractSOAPResult pulls the embedded result document out of the SOAP
// envelope. Namespaces vary between environments, so elements are matched
// by local name only.
func extractSOAPResult(soap []byte) (string, *FetchError) {
	dec := xml.NewDecoder(strings.NewReader(string(soap)))
	inResult := false
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &FetchError{Code: pricing.CodeGeneral, Message: "invalid SOAP envelope"}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "GetInfoForTimeFrameByInfoTypeResult" {
				inResult = true
			}
		case xml.EndElement:
			if t.Name.Local == "GetInfoForTimeFrameByInfoTypeResult" {
				inResult = false
			}
		case xml.CharData:
			if inResult {
				sb.Write(t)
			}
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", &FetchError{Code: pricing.CodeGeneral, Message: "empty SOAP result"}
	}
	return out, nil
}

// parseMarketXML decodes the inner market document into items, or the
// error the service reported inline.
func parseMarketXML(doc string) ([]renItem, *FetchError) {
	dec := xml.NewDecoder(strings.NewReader(doc))

	var items []renItem
	var errCode, errMsg string
	var path []string
	var text strings.Builder
	var cur renItem
	curValid := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FetchError{Code: pricing.CodeGeneral, Message: "invalid market XML"}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			path = append(path, t.Name.Local)
			text.Reset()
			if t.Name.Local == "Item" {
				cur = renItem{}
				curValid = true
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			parent := ""
			if len(path) >= 2 {
				parent = path[len(path)-2]
			}
			value := strings.TrimSpace(text.String())
			switch t.Name.Local {
			case "Code":
				if parent == "Error" {
					errCode = value
				}
			case "Message":
				if parent == "Error" {
					errMsg = value
				}
			case "UTCDate":
				if parent == "Item" && curValid {
					ts, perr := time.Parse(time.RFC3339, value)
					if perr != nil {
						curValid = false
					} else {
						cur.TS = ts
					}
				}
			case "Price":
				if parent == "Item" && curValid {
					p, perr := strconv.ParseFloat(value, 64)
					if perr != nil {
						curValid = false
					} else {
						cur.EURPerMWh = p
					}
				}
			case "Item":
				if curValid && !cur.TS.IsZero() {
					items = append(items, cur)
				}
				curValid = false
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
			text.Reset()
		}
	}

	if errCode != "" || errMsg != "" {
		if errCode == "" {
			errCode = pricing.CodeGeneral
		}
		if errMsg == "" {
			errMsg = "REN error"
		}
		return nil, &FetchError{Code: errCode, Message: errMsg}
	}
	if len(items) == 0 {
		return nil, &FetchError{Code: pricing.CodeNoData, Message: "no data available"}
	}
	return items, nil
}

// closestPriceEURKWh picks the sample nearest to now and converts it from
// €/MWh to €/kWh.
func closestPriceEURKWh(items []renItem, now time.Time) (float64, bool) {
	if len(items) == 0 {
		return 0, false
	}
	best := items[0]
	bestDist := absDuration(items[0].TS.Sub(now))
	for _, it := range items[1:] {
		if d := absDuration(it.TS.Sub(now)); d < bestDist {
			best = it
			bestDist = d
		}
	}
	return best.EURPerMWh / 1000.0, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
