package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// FeishuBatchLimit is the maximum records per Bitable append call.
const FeishuBatchLimit = 500

// FeishuLedgerCap bounds the written-ID ledger to its most-recent
// entries, per spec.md §6.
const FeishuLedgerCap = 5000

// FeishuRecord is one row appended to the Bitable.
type FeishuRecord struct {
	ID     string
	Fields map[string]any
}

// FeishuBitable appends news records to a Feishu multi-dimensional
// table, skipping any ID already present in its on-disk ledger.
type FeishuBitable struct {
	AppID      string
	AppSecret  string
	BaseToken  string
	TableID    string
	LedgerPath string
	HTTPClient *http.Client

	ledger []string // most-recent last
}

// NewFeishuBitable returns a client; ledgerPath backs
// feishu_written_ids.json.
func NewFeishuBitable(appID, appSecret, baseToken, tableID, ledgerPath string) *FeishuBitable {
	f := &FeishuBitable{
		AppID:      appID,
		AppSecret:  appSecret,
		BaseToken:  baseToken,
		TableID:    tableID,
		LedgerPath: ledgerPath,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
	f.loadLedger()
	return f
}

func (f *FeishuBitable) loadLedger() {
	if f.LedgerPath == "" {
		return
	}
	data, err := os.ReadFile(f.LedgerPath)
	if err != nil {
		return
	}
	var ids []string
	if json.Unmarshal(data, &ids) == nil {
		f.ledger = ids
	}
}

func (f *FeishuBitable) saveLedger() {
	if f.LedgerPath == "" {
		return
	}
	data, err := json.MarshalIndent(f.ledger, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(f.LedgerPath), 0o755)
	_ = os.WriteFile(f.LedgerPath, data, 0o644)
}

func (f *FeishuBitable) written(id string) bool {
	for _, w := range f.ledger {
		if w == id {
			return true
		}
	}
	return false
}

func (f *FeishuBitable) markWritten(id string) {
	f.ledger = append(f.ledger, id)
	if len(f.ledger) > FeishuLedgerCap {
		f.ledger = f.ledger[len(f.ledger)-FeishuLedgerCap:]
	}
}

// Append filters records to those whose ID is not already in the
// ledger, posts them to the Bitable in batches of up to
// FeishuBatchLimit, and returns the count actually appended.
func (f *FeishuBitable) Append(ctx context.Context, records []FeishuRecord) (int, error) {
	var pending []FeishuRecord
	for _, r := range records {
		if !f.written(r.ID) {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	appended := 0
	for start := 0; start < len(pending); start += FeishuBatchLimit {
		end := start + FeishuBatchLimit
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		if err := f.appendBatch(ctx, batch); err != nil {
			return appended, err
		}
		for _, r := range batch {
			f.markWritten(r.ID)
		}
		appended += len(batch)
	}

	f.saveLedger()
	return appended, nil
}

func (f *FeishuBitable) appendBatch(ctx context.Context, batch []FeishuRecord) error {
	records := make([]map[string]any, 0, len(batch))
	for _, r := range batch {
		records = append(records, map[string]any{"fields": r.Fields})
	}
	body, _ := json.Marshal(map[string]any{"records": records})

	url := fmt.Sprintf("https://open.feishu.cn/open-apis/bitable/v1/apps/%s/tables/%s/records/batch_create", f.BaseToken, f.TableID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Code != 0 {
		return fmt.Errorf("feishu bitable append failed: %d %s", result.Code, result.Msg)
	}
	return nil
}
