/*
Copyright 2024 The Trustpilot Plugin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// PurchaseCompleted is the inbound event recorded when a recipient's
// purchase of a subject completes. It is the trigger for scheduling a
// review invitation.
type PurchaseCompleted struct {
	RecipientUserID int64  `json:"recipient_user_id"`
	RecipientEmail  string `json:"recipient_email"`
	RecipientName   string `json:"recipient_name"`
	SubjectID       int64  `json:"subject_id"`
}

func (p *PurchaseCompleted) ValidatePurchaseCompleted() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.RecipientUserID, validation.Required),
		validation.Field(&p.RecipientEmail, validation.Required, is.Email),
		validation.Field(&p.RecipientName, validation.Required),
		validation.Field(&p.SubjectID, validation.Required),
	)
}
