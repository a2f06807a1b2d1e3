// Package bcn reads the official córdoba/US dollar exchange rate published by
// the Banco Central de Nicaragua through its SOAP service.
package bcn

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/credinica/loan-service/internal/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	serviceNS  = "http://servicios.bcn.gob.ni/"
	soapAction = serviceNS + "RecuperaTC_Dia"
)

// Client handles integration with the Banco Central de Nicaragua
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger

	mu    sync.Mutex
	cache map[string]decimal.Decimal
}

// NewClient initializes a new BCN client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.BCNURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:   log,
		cache: map[string]decimal.Decimal{},
	}
}

// buildRequest creates the RecuperaTC_Dia SOAP 1.1 envelope for date
func buildRequest(date time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", "http://schemas.xmlsoap.org/soap/envelope/")
	call := env.CreateElement("soap:Body").CreateElement("RecuperaTC_Dia")
	call.CreateAttr("xmlns", serviceNS)
	call.CreateElement("Ano").SetText(fmt.Sprint(date.Year()))
	call.CreateElement("Mes").SetText(fmt.Sprint(int(date.Month())))
	call.CreateElement("Dia").SetText(fmt.Sprint(date.Day()))
	return doc.WriteToBytes()
}

// sendRequest posts a SOAP envelope to the BCN service
func (c *Client) sendRequest(ctx context.Context, envelope []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("BCN XML response: %s", string(body))
	return body, nil
}

// parseResponse extracts the rate from a RecuperaTC_DiaResponse
func parseResponse(raw []byte) (decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse XML: %w", err)
	}
	result := doc.FindElement("//RecuperaTC_DiaResult")
	if result == nil {
		return decimal.Zero, fmt.Errorf("exchange rate not found in XML")
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(result.Text()))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse rate %q: %w", result.Text(), err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("no exchange rate published for the date")
	}
	return rate, nil
}

// ExchangeRate returns the official rate for the calendar day of date.
// Rates are cached per day.
func (c *Client) ExchangeRate(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	key := date.Format("2006-01-02")
	c.mu.Lock()
	rate, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return rate, nil
	}

	envelope, err := buildRequest(date)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}
	body, err := c.sendRequest(ctx, envelope)
	if err != nil {
		return decimal.Zero, err
	}
	rate, err = parseResponse(body)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.cache[key] = rate
	c.mu.Unlock()
	c.log.Infof("Retrieved BCN exchange rate for %s: %s", key, rate)
	return rate, nil
}
