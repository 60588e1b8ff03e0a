package amsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

// policyPayload is the wire form of one policy upload.
type policyPayload struct {
	Doctype          string              `json:"doctype"`
	PolicyNumber     string              `json:"policy_number"`
	EffectiveDate    models.Date         `json:"effective_date"`
	ExpirationDate   models.Date         `json:"expiration_date"`
	Status           models.PolicyStatus `json:"status"`
	Premium          decimal.Decimal     `json:"premium"`
	Broker           string              `json:"broker"`
	PolicyType       string              `json:"policy_type"`
	Carrier          string              `json:"carrier"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
	BrokerFee        decimal.Decimal     `json:"broker_fee"`
}

// UploadResult summarizes an upload batch. Failed holds the policy numbers
// that exhausted their retries.
type UploadResult struct {
	Uploaded int
	Failed   []string
}

// UploadPolicies uploads records concurrently through a bounded worker pool.
// Each record is independent: a failed upload is retried with backoff up to
// the configured limit and then reported, without blocking or corrupting
// sibling uploads.
func (c *Client) UploadPolicies(ctx context.Context, records []models.PolicyRecord) UploadResult {
	jobs := make(chan models.PolicyRecord)

	var mu sync.Mutex
	result := UploadResult{}

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				err := c.uploadOne(ctx, rec)
				mu.Lock()
				if err != nil {
					result.Failed = append(result.Failed, rec.PolicyNumber)
				} else {
					result.Uploaded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, rec := range records {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()

	log.WithFields(logrus.Fields{
		"uploaded": result.Uploaded,
		"failed":   len(result.Failed),
		"total":    len(records),
	}).Info("Upload batch finished")

	return result
}

func (c *Client) uploadOne(ctx context.Context, rec models.PolicyRecord) error {
	payload := policyPayload{
		Doctype:          "Policy",
		PolicyNumber:     rec.PolicyNumber,
		EffectiveDate:    rec.EffectiveDate,
		ExpirationDate:   rec.ExpirationDate,
		Status:           rec.Status,
		Premium:          rec.Premium,
		Broker:           rec.BrokerEmail,
		PolicyType:       rec.PolicyType,
		Carrier:          rec.Carrier,
		CommissionAmount: rec.CommissionAmount,
		BrokerFee:        rec.BrokerFeeAmount,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling policy payload: %w", err)
	}

	delay := c.retryDelay
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.postOnce(ctx, "/policies", body, nil)
		if lastErr == nil {
			log.WithField("policy_number", rec.PolicyNumber).Debug("Uploaded policy")
			return nil
		}

		if attempt < c.maxRetries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	log.WithError(lastErr).WithField("policy_number", rec.PolicyNumber).Error("Failed to upload policy after retries")
	return lastErr
}
