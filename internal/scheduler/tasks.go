package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowUpReminder = "leads.follow_up.reminder"

const TaskAffiliatePurchase = "affiliates.purchase.track"

type FollowUpReminderPayload struct {
	LeadID     string `json:"leadId"`
	FollowUpAt string `json:"followUpAt"`
}

// AffiliatePurchasePayload carries the order value as a decimal string so
// the commission is computed from the exact amount.
type AffiliatePurchasePayload struct {
	ClientID   string `json:"clientId"`
	OrderID    string `json:"orderId"`
	OrderValue string `json:"orderValue"`
}

func NewFollowUpReminderTask(payload FollowUpReminderPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpReminder, data, opts...), nil
}

func ParseFollowUpReminderPayload(task *asynq.Task) (FollowUpReminderPayload, error) {
	var payload FollowUpReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpReminderPayload{}, err
	}
	return payload, nil
}

func NewAffiliatePurchaseTask(payload AffiliatePurchasePayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliatePurchase, data, opts...), nil
}

func ParseAffiliatePurchasePayload(task *asynq.Task) (AffiliatePurchasePayload, error) {
	var payload AffiliatePurchasePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AffiliatePurchasePayload{}, err
	}
	return payload, nil
}
