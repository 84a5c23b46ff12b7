package sqlassets

import _ "embed"

//go:embed schema/business_owners.sql
var BusinessOwnersSQL string

//go:embed schema/payments.sql
var PaymentsSQL string

//go:embed schema/access_control.sql
var AccessControlSQL string
