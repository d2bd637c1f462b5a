package domain

// Verification is the pending one-time code for an account.
// PK: account_id, SK: channel. ExpiresAt is a Unix timestamp used as the
// DynamoDB TTL; an expired record is treated as absent even before the TTL
// sweep physically removes it.
type Verification struct {
	AccountID string `json:"account_id" dynamodbav:"account_id"`
	Channel   string `json:"channel" dynamodbav:"channel"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}

// ChannelEmail is the delivery channel for the signup/resend OTP. Every
// issuance overwrites the same record, so a new code always replaces the old.
const ChannelEmail = "email"
