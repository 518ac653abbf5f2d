package api

import "borrower-client/internal/common/validation"

const (
	contractVerify   = "auth.verify"
	contractRefresh  = "auth.refresh"
	contractSanction = "loans.sanction"
)

const verifySchema = `{
  "type": "object",
  "required": ["access_token"],
  "properties": {
    "access_token": {"type": "string", "minLength": 1},
    "refresh_token": {"type": ["string", "null"]},
    "token_type": {"type": "string"},
    "is_onboarded": {"type": "boolean"}
  }
}`

const refreshSchema = `{
  "type": "object",
  "required": ["access_token"],
  "properties": {
    "access_token": {"type": "string", "minLength": 1},
    "refresh_token": {"type": ["string", "null"]}
  }
}`

const sanctionSchema = `{
  "type": "object",
  "anyOf": [
    {"required": ["loan_id"], "properties": {"loan_id": {"type": "string", "minLength": 1}}},
    {"required": ["id"], "properties": {"id": {"type": "string", "minLength": 1}}}
  ]
}`

func newContracts() *validation.ContractValidator {
	return validation.NewContractValidator().
		MustRegister(contractVerify, verifySchema).
		MustRegister(contractRefresh, refreshSchema).
		MustRegister(contractSanction, sanctionSchema)
}
