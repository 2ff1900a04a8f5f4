package recordstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"

	"github.com/goccy/go-json"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const (
	errorCodeSlotTaken               = "slot_taken"
	errorCodeInvalidStatusTransition = "invalid_status_transition"
)

type bundleEntry struct {
	Resource json.RawMessage `json:"resource"`
}

type bundleResponse struct {
	Entry []bundleEntry `json:"entry"`
}

type createResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type statusRequest struct {
	Status domain.AppointmentStatus `json:"status"`
}

// RecordStoreAdapter — HTTP-клиент удаленного хранилища правил расписания и записей
type RecordStoreAdapter struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	logger   out.LoggerPort
}

func NewRecordStoreAdapter(cfg *config.Config, logger out.LoggerPort) *RecordStoreAdapter {
	return &RecordStoreAdapter{
		client:   &http.Client{Timeout: cfg.RecordStore.Timeout},
		baseURL:  cfg.RecordStore.URL,
		username: cfg.RecordStore.Username,
		password: cfg.RecordStore.Password,
		logger:   logger,
	}
}

func (a *RecordStoreAdapter) ListScheduleRules(ctx context.Context, providerID string) ([]domain.ScheduleRule, error) {
	query := nurl.Values{}
	if providerID != "" {
		query.Add("provider", providerID)
	}

	entries, err := a.fetchBundle(ctx, "schedule_rules", "/schedule-rules", query)
	if err != nil {
		return nil, err
	}

	rules := make([]domain.ScheduleRule, 0, len(entries))
	for _, entry := range entries {
		var rule domain.ScheduleRule
		if err := json.Unmarshal(entry.Resource, &rule); err != nil {
			a.logger.Error("recordstore.schedule_rules.decode_resource_failed", out.LogFields{
				"error": err.Error(),
			})
			return nil, fmt.Errorf("%w: decode schedule rule: %w", domain.ErrTransport, err)
		}
		rules = append(rules, rule)
	}

	a.logger.Debug("recordstore.schedule_rules.fetch_success", out.LogFields{
		"providerId": providerID,
		"count":      len(rules),
	})

	return rules, nil
}

func (a *RecordStoreAdapter) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	query := nurl.Values{}
	if filter.ProviderID != "" {
		query.Add("provider", filter.ProviderID)
	}
	if filter.From != nil {
		query.Add("from", filter.From.String())
	}
	if filter.To != nil {
		query.Add("to", filter.To.String())
	}

	entries, err := a.fetchBundle(ctx, "appointments", "/appointments", query)
	if err != nil {
		return nil, err
	}

	appointments := make([]domain.Appointment, 0, len(entries))
	for _, entry := range entries {
		var appointment domain.Appointment
		if err := json.Unmarshal(entry.Resource, &appointment); err != nil {
			a.logger.Error("recordstore.appointments.decode_resource_failed", out.LogFields{
				"error": err.Error(),
			})
			return nil, fmt.Errorf("%w: decode appointment: %w", domain.ErrTransport, err)
		}
		appointments = append(appointments, appointment)
	}

	a.logger.Debug("recordstore.appointments.fetch_success", out.LogFields{
		"providerId": filter.ProviderID,
		"count":      len(appointments),
	})

	return appointments, nil
}

func (a *RecordStoreAdapter) CreateAppointment(ctx context.Context, appointment domain.Appointment) (string, error) {
	a.logger.Info("recordstore.appointment.create", out.LogFields{
		"providerId": appointment.ProviderID,
		"date":       appointment.Date,
		"startTime":  appointment.StartTime,
		"status":     appointment.Status,
	})

	resp, err := a.do(ctx, http.MethodPost, "/appointments", nil, appointment)
	if err != nil {
		a.logger.Error("recordstore.appointment.create_failed", out.LogFields{
			"error": err.Error(),
		})
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		apiErr := decodeError(resp.Body)
		if apiErr.Code == errorCodeInvalidStatusTransition {
			return "", fmt.Errorf("%w: %s", domain.ErrInvalidStatusTransition, apiErr.Error)
		}
		a.logger.Warn("recordstore.appointment.create.slot_taken", out.LogFields{
			"providerId": appointment.ProviderID,
			"date":       appointment.Date,
			"startTime":  appointment.StartTime,
		})
		return "", domain.ErrSlotTaken
	default:
		return "", a.unexpectedStatus("recordstore.appointment.create_failed", resp)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		a.logger.Error("recordstore.appointment.decode_response_failed", out.LogFields{
			"error": err.Error(),
		})
		return "", fmt.Errorf("%w: decode create response: %w", domain.ErrTransport, err)
	}

	return created.ID, nil
}

func (a *RecordStoreAdapter) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error {
	a.logger.Info("recordstore.appointment.status_update", out.LogFields{
		"appointmentId": appointmentID,
		"status":        status,
	})

	path := fmt.Sprintf("/appointments/%s/status", nurl.PathEscape(appointmentID))
	resp, err := a.do(ctx, http.MethodPatch, path, nil, statusRequest{Status: status})
	if err != nil {
		a.logger.Error("recordstore.appointment.status_update_failed", out.LogFields{
			"appointmentId": appointmentID,
			"error":         err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return domain.ErrAppointmentNotFound
	case http.StatusConflict:
		apiErr := decodeError(resp.Body)
		if apiErr.Code == errorCodeSlotTaken {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidStatusTransition, apiErr.Error)
	default:
		return a.unexpectedStatus("recordstore.appointment.status_update_failed", resp)
	}
}

func (a *RecordStoreAdapter) fetchBundle(ctx context.Context, resource, path string, query nurl.Values) ([]bundleEntry, error) {
	a.logger.Info("recordstore."+resource+".fetch", out.LogFields{
		"query": query.Encode(),
	})

	resp, err := a.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		a.logger.Error("recordstore."+resource+".fetch_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.unexpectedStatus("recordstore."+resource+".fetch_failed", resp)
	}

	var bundle bundleResponse
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		a.logger.Error("recordstore."+resource+".decode_response_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrTransport, resource, err)
	}

	return bundle.Entry, nil
}

// do возвращает ошибку только при сбое транспорта, статус ответа проверяет вызывающий
func (a *RecordStoreAdapter) do(ctx context.Context, method, path string, query nurl.Values, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := a.baseURL + path
	if len(query) > 0 {
		url += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	req.SetBasicAuth(a.username, a.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	return resp, nil
}

func (a *RecordStoreAdapter) unexpectedStatus(event string, resp *http.Response) error {
	apiErr := decodeError(resp.Body)
	a.logger.Error(event, out.LogFields{
		"status": resp.StatusCode,
		"error":  apiErr.Error,
	})
	return fmt.Errorf("%w: unexpected status code: %d", domain.ErrTransport, resp.StatusCode)
}

func decodeError(body io.Reader) errorResponse {
	var apiErr errorResponse
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil && !errors.Is(err, io.EOF) {
		apiErr.Error = "undecodable error body"
	}
	return apiErr
}
