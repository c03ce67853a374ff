package aws

import "encoding/json"

// UnwrapSNSEnvelope returns the inner message when body is an SNS notification
// delivered to SQS without raw message delivery. Other bodies are returned as is.
func UnwrapSNSEnvelope(body string) string {
	var envelope struct {
		Type    string `json:"Type"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return body
}

func eventTypeOf(message []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &head); err != nil {
		return ""
	}
	return head.Type
}
