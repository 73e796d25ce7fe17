// Package ingestion turns trade files and API payloads into validated
// domain.TradeRecords and hands them to a trade store.
package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"solana-pnl-lab/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format is a trade file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned for file extensions with no decoder.
var ErrUnknownFormat = errors.New("unknown trade file format")

// FormatFromPath picks the format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// WireTrade is the file and API representation of a trade. Kind is the
// lowercase wire string; USD values are null when unknown.
type WireTrade struct {
	Signature      string   `json:"signature" yaml:"signature"`
	Wallet         string   `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	Kind           string   `json:"kind" yaml:"kind"`
	Timestamp      int64    `json:"timestamp" yaml:"timestamp"`
	InputAsset     string   `json:"input_asset" yaml:"input_asset"`
	InputAmount    float64  `json:"input_amount" yaml:"input_amount"`
	OutputAsset    string   `json:"output_asset" yaml:"output_asset"`
	OutputAmount   float64  `json:"output_amount" yaml:"output_amount"`
	InputValueUSD  *float64 `json:"input_value_usd" yaml:"input_value_usd"`
	OutputValueUSD *float64 `json:"output_value_usd" yaml:"output_value_usd"`
}

// Record converts the wire form into a domain record.
func (w WireTrade) Record() (domain.TradeRecord, error) {
	kind, err := domain.ParseTradeKind(w.Kind)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("%w: %s: %v", ErrInvalidTrade, w.Signature, err)
	}
	return domain.TradeRecord{
		Signature:      w.Signature,
		Wallet:         w.Wallet,
		Kind:           kind,
		Timestamp:      w.Timestamp,
		InputAsset:     w.InputAsset,
		InputAmount:    w.InputAmount,
		OutputAsset:    w.OutputAsset,
		OutputAmount:   w.OutputAmount,
		InputValueUSD:  domain.USDFromPtr(w.InputValueUSD),
		OutputValueUSD: domain.USDFromPtr(w.OutputValueUSD),
	}, nil
}

// ToWire converts a domain record for output.
func ToWire(t domain.TradeRecord) WireTrade {
	return WireTrade{
		Signature:      t.Signature,
		Wallet:         t.Wallet,
		Kind:           t.Kind.String(),
		Timestamp:      t.Timestamp,
		InputAsset:     t.InputAsset,
		InputAmount:    t.InputAmount,
		OutputAsset:    t.OutputAsset,
		OutputAmount:   t.OutputAmount,
		InputValueUSD:  t.InputValueUSD.Ptr(),
		OutputValueUSD: t.OutputValueUSD.Ptr(),
	}
}

// tradeFile is the object form of JSON and YAML files.
type tradeFile struct {
	Wallet string      `json:"wallet" yaml:"wallet"`
	Trades []WireTrade `json:"trades" yaml:"trades"`
}

// LoadFile reads and converts the trades in path. The format follows the
// file extension.
func LoadFile(path string) ([]domain.TradeRecord, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade file: %w", err)
	}
	defer f.Close()

	trades, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return trades, nil
}

// Decode reads trades from r. JSON and YAML accept either a bare list or an
// object with a "trades" list and an optional "wallet" applied to trades
// that have none.
func Decode(r io.Reader, format Format) ([]domain.TradeRecord, error) {
	var (
		wire []WireTrade
		err  error
	)
	switch format {
	case FormatJSON:
		wire, err = decodeJSON(r)
	case FormatYAML:
		wire, err = decodeYAML(r)
	case FormatCSV:
		wire, err = decodeCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return toRecords(wire)
}

func toRecords(wire []WireTrade) ([]domain.TradeRecord, error) {
	trades := make([]domain.TradeRecord, 0, len(wire))
	for i, w := range wire {
		t, err := w.Record()
		if err != nil {
			return nil, fmt.Errorf("trade %d: %w", i, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func decodeJSON(r io.Reader) ([]WireTrade, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var list []WireTrade
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return list, nil
	}

	var file tradeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return file.withWallet(), nil
}

func decodeYAML(r io.Reader) ([]WireTrade, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	if root.Kind == yaml.SequenceNode {
		var list []WireTrade
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return list, nil
	}

	var file tradeFile
	if err := root.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return file.withWallet(), nil
}

func (f tradeFile) withWallet() []WireTrade {
	if f.Wallet == "" {
		return f.Trades
	}
	for i := range f.Trades {
		if f.Trades[i].Wallet == "" {
			f.Trades[i].Wallet = f.Wallet
		}
	}
	return f.Trades
}

// csvColumns is the required header, in any order. Wallet and the two USD
// columns may be omitted.
var csvColumns = []string{
	"signature", "kind", "timestamp",
	"input_asset", "input_amount", "output_asset", "output_amount",
}

func decodeCSV(r io.Reader) ([]WireTrade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range csvColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", name)
		}
	}

	var out []WireTrade
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		w, err := csvTrade(rec, col)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func csvTrade(rec []string, col map[string]int) (WireTrade, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		w   WireTrade
		err error
	)
	w.Signature = field("signature")
	w.Wallet = field("wallet")
	w.Kind = field("kind")
	w.InputAsset = field("input_asset")
	w.OutputAsset = field("output_asset")

	if w.Timestamp, err = strconv.ParseInt(field("timestamp"), 10, 64); err != nil {
		return w, fmt.Errorf("timestamp: %w", err)
	}
	if w.InputAmount, err = strconv.ParseFloat(field("input_amount"), 64); err != nil {
		return w, fmt.Errorf("input_amount: %w", err)
	}
	if w.OutputAmount, err = strconv.ParseFloat(field("output_amount"), 64); err != nil {
		return w, fmt.Errorf("output_amount: %w", err)
	}
	if w.InputValueUSD, err = optionalFloat(field("input_value_usd")); err != nil {
		return w, fmt.Errorf("input_value_usd: %w", err)
	}
	if w.OutputValueUSD, err = optionalFloat(field("output_value_usd")); err != nil {
		return w, fmt.Errorf("output_value_usd: %w", err)
	}
	return w, nil
}

// optionalFloat treats an empty cell as an unknown value.
func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
