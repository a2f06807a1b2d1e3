package bcn

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/credinica/loan-service/internal/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const okResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <RecuperaTC_DiaResponse xmlns="http://servicios.bcn.gob.ni/">
      <RecuperaTC_DiaResult>36.6243</RecuperaTC_DiaResult>
    </RecuperaTC_DiaResponse>
  </soap:Body>
</soap:Envelope>`

func newTestClient(url string) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(&config.Config{BCNURL: url}, log)
}

func TestExchangeRate(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("SOAPAction") != soapAction {
			t.Errorf("Expected SOAPAction %s, got %s", soapAction, r.Header.Get("SOAPAction"))
		}
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{"<Ano>2025</Ano>", "<Mes>2</Mes>", "<Dia>5</Dia>"} {
			if !strings.Contains(string(body), want) {
				t.Errorf("Expected request to contain %s, got %s", want, body)
			}
		}
		w.Write([]byte(okResponse))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	date := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	rate, err := c.ExchangeRate(context.Background(), date)
	if err != nil {
		t.Fatalf("ExchangeRate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("36.6243")) {
		t.Errorf("Expected 36.6243, got %s", rate)
	}

	if _, err := c.ExchangeRate(context.Background(), date); err != nil {
		t.Fatalf("ExchangeRate failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected the second lookup to be cached, got %d calls", n)
	}
}

func TestExchangeRate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"not xml", http.StatusOK, "hola"},
		{"missing result", http.StatusOK, `<Envelope><Body/></Envelope>`},
		{"zero rate", http.StatusOK, `<Envelope><RecuperaTC_DiaResult>0</RecuperaTC_DiaResult></Envelope>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := newTestClient(srv.URL).ExchangeRate(context.Background(), time.Now()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
