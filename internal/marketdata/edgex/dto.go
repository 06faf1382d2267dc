package edgex

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"alert-systemv1/internal/model"
)

const codeSuccess = "SUCCESS"

// klineResponse is the getKline envelope.
type klineResponse struct {
	Code         string `json:"code"`
	Msg          string `json:"msg"`
	ErrorParam   any    `json:"errorParam"`
	RequestTime  string `json:"requestTime"`
	ResponseTime string `json:"responseTime"`
	Data         *struct {
		DataList []klineDTO `json:"dataList"`
	} `json:"data"`
}

type klineDTO struct {
	ContractID string `json:"contractId"`
	KlineType  string `json:"klineType"`
	KlineTime  number `json:"klineTime"`
	Open       number `json:"open"`
	High       number `json:"high"`
	Low        number `json:"low"`
	Close      number `json:"close"`
	Size       number `json:"size"`
}

// number accepts a JSON number or a quoted numeric string. Parsing is
// deferred so one bad row does not fail the whole response.
type number string

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = number(strings.TrimSpace(s))
		return nil
	}
	*n = number(b)
	return nil
}

var errMissing = errors.New("missing value")

func (n number) decimal() (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, errMissing
	}
	return decimal.NewFromString(string(n))
}

func (n number) float() (float64, error) {
	d, err := n.decimal()
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// candle converts a row. A missing size counts as zero volume; every other
// field is required.
func (k klineDTO) candle() (model.Candle, error) {
	tsDec, err := k.KlineTime.decimal()
	if err != nil {
		return model.Candle{}, err
	}
	if !tsDec.IsInteger() || tsDec.Sign() <= 0 {
		return model.Candle{}, errors.New("klineTime is not a positive integer")
	}

	var c model.Candle
	c.TS = tsDec.IntPart()
	for _, f := range []struct {
		dst *float64
		src number
	}{
		{&c.Open, k.Open},
		{&c.High, k.High},
		{&c.Low, k.Low},
		{&c.Close, k.Close},
	} {
		if *f.dst, err = f.src.float(); err != nil {
			return model.Candle{}, err
		}
	}
	if k.Size != "" {
		if c.Volume, err = k.Size.float(); err != nil {
			return model.Candle{}, err
		}
	}
	return c, nil
}
