package lead

import (
	"strings"
	"time"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
	"github.com/frahmantamala/rti-filing/internal/core/events"
)

type ConsultationDTO struct {
	FullName         string     `json:"full_name"`
	Email            string     `json:"email"`
	Mobile           string     `json:"mobile"`
	ConsultationType string     `json:"consultation_type"`
	PreferredDate    *time.Time `json:"preferred_date,omitempty"`
	Message          *string    `json:"message,omitempty"`
}

func (dto ConsultationDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("full_name", dto.FullName).Required().MinLength(2).MaxLength(100)
	v.Field("email", dto.Email).Required().Email().MaxLength(255)
	v.Field("mobile", dto.Mobile).Required().Mobile()
	v.Field("consultation_type", dto.ConsultationType).Required().MaxLength(100)
	v.Field("message", dto.Message).MaxLength(2000)
	return v.Validate()
}

func (dto ConsultationDTO) FormFields() []events.FormField {
	fields := []events.FormField{
		{Label: "Full Name", Value: dto.FullName},
		{Label: "Email", Value: dto.Email},
		{Label: "Mobile", Value: dto.Mobile},
		{Label: "Consultation Type", Value: dto.ConsultationType},
	}
	if dto.PreferredDate != nil {
		fields = append(fields, events.FormField{Label: "Preferred Date", Value: dto.PreferredDate.Format("02 Jan 2006")})
	}
	if dto.Message != nil && *dto.Message != "" {
		fields = append(fields, events.FormField{Label: "Message", Value: *dto.Message})
	}
	return fields
}

type CallbackDTO struct {
	FullName      string  `json:"full_name"`
	Mobile        string  `json:"mobile"`
	PreferredTime *string `json:"preferred_time,omitempty"`
	Message       *string `json:"message,omitempty"`
}

func (dto CallbackDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("full_name", dto.FullName).Required().MinLength(2).MaxLength(100)
	v.Field("mobile", dto.Mobile).Required().Mobile()
	v.Field("preferred_time", dto.PreferredTime).MaxLength(50)
	v.Field("message", dto.Message).MaxLength(2000)
	return v.Validate()
}

func (dto CallbackDTO) FormFields() []events.FormField {
	fields := []events.FormField{
		{Label: "Full Name", Value: dto.FullName},
		{Label: "Mobile", Value: dto.Mobile},
	}
	if dto.PreferredTime != nil && *dto.PreferredTime != "" {
		fields = append(fields, events.FormField{Label: "Preferred Time", Value: *dto.PreferredTime})
	}
	if dto.Message != nil && *dto.Message != "" {
		fields = append(fields, events.FormField{Label: "Message", Value: *dto.Message})
	}
	return fields
}

type NewsletterDTO struct {
	Email string `json:"email"`
}

func (dto NewsletterDTO) Normalized() NewsletterDTO {
	return NewsletterDTO{Email: strings.ToLower(strings.TrimSpace(dto.Email))}
}

func (dto NewsletterDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Email().MaxLength(255)
	return v.Validate()
}

type StatusDTO struct {
	Status string `json:"status"`
}

func validateStatus(status string, allowed []string) *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("status", status).Required().OneOf(allowed...)
	return v.Validate()
}

func validateFilter(f Filter, allowed []string) *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(allowed...)
	return v.Validate()
}

type CreatedResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}
