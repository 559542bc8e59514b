package catalog

import (
	"strings"

	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

const statusNew = "New"

// enquiryStatuses is the workflow shared by every form submission table.
var enquiryStatuses = []string{statusNew, "In Progress", "Contacted", "Resolved", "Closed"}

func newEnquiry[T any](name, noun string, status func(*T) *string) records.Resource[T] {
	return records.Resource[T]{
		Name:     name,
		Noun:     noun,
		Mode:     records.Preserve,
		Filters:  []string{"status"},
		Statuses: enquiryStatuses,
		Prepare:  withDefault(status, statusNew),
	}
}

type ServiceBooking struct {
	records.Base
	FirstName          string             `json:"first_name" form:"first_name" binding:"required"`
	LastName           string             `json:"last_name" form:"last_name" binding:"required"`
	Email              string             `json:"email" form:"email" binding:"required,email"`
	Phone              string             `json:"phone" form:"phone" binding:"required"`
	CarMake            string             `json:"car_make" form:"car_make" binding:"required"`
	CarModel           string             `json:"car_model" form:"car_model" binding:"required"`
	CarYear            string             `json:"car_year" form:"car_year" binding:"required"`
	LicensePlate       string             `json:"license_plate" form:"license_plate" binding:"required"`
	ServiceType        string             `json:"service_type" form:"service_type" binding:"required"`
	PreferredDate      string             `json:"preferred_date" form:"preferred_date" binding:"required"`
	PreferredTime      string             `json:"preferred_time" form:"preferred_time" binding:"required"`
	AdditionalServices records.StringList `json:"additional_services" form:"-"`
	Notes              string             `json:"notes" form:"notes" gorm:"type:text"`
	TermsAccepted      bool               `json:"terms_accepted" form:"terms_accepted" binding:"required"`
	Status             string             `json:"status" form:"-" gorm:"index"`
}

func (ServiceBooking) TableName() string { return "service_bookings" }

var serviceBookings = func() records.Resource[ServiceBooking] {
	r := newEnquiry("service-bookings", "booking", func(s *ServiceBooking) *string { return &s.Status })
	r.Lists = []records.List[ServiceBooking]{{
		Field: "additional_services",
		Ref:   func(s *ServiceBooking) *records.StringList { return &s.AdditionalServices },
	}}
	r.Filters = append(r.Filters, "service_type")
	r.Search = []string{"first_name", "last_name", "email", "phone", "license_plate"}
	return r
}()

type AccessoryEnquiry struct {
	records.Base
	ProductID    uint   `json:"product_id" form:"product_id" gorm:"index"`
	CustomerName string `json:"customer_name" form:"customer_name" binding:"required"`
	Email        string `json:"email" form:"email" binding:"required,email"`
	Phone        string `json:"phone" form:"phone" binding:"required"`
	Address      string `json:"address" form:"address"`
	City         string `json:"city" form:"city" binding:"required"`
	Pincode      string `json:"pincode" form:"pincode"`
	Message      string `json:"message" form:"message" gorm:"type:text"`
	Status       string `json:"status" form:"-" gorm:"index"`
}

func (AccessoryEnquiry) TableName() string { return "car_accessory_enquiries" }

var accessoryEnquiries = func() records.Resource[AccessoryEnquiry] {
	r := newEnquiry("accessory-enquiries", "enquiry", func(a *AccessoryEnquiry) *string { return &a.Status })
	r.Filters = append(r.Filters, "product_id", "city")
	r.Search = []string{"customer_name", "email", "phone"}
	return r
}()

type ContactMessage struct {
	records.Base
	Name    string `json:"name" form:"name" binding:"required"`
	Email   string `json:"email" form:"email" binding:"required,email"`
	Message string `json:"message" form:"message" binding:"required" gorm:"type:text"`
	Status  string `json:"status" form:"-" gorm:"index"`
}

func (ContactMessage) TableName() string { return "contact_us" }

var contactMessages = func() records.Resource[ContactMessage] {
	r := newEnquiry("contact-messages", "message", func(c *ContactMessage) *string { return &c.Status })
	r.Search = []string{"name", "email", "message"}
	return r
}()

type InsuranceEnquiry struct {
	records.Base
	FullName         string `json:"full_name" form:"full_name" binding:"required"`
	Mobile           string `json:"mobile" form:"mobile" binding:"required"`
	Email            string `json:"email" form:"email" binding:"required,email"`
	VehicleRegNo     string `json:"vehicle_reg_no" form:"vehicle_reg_no" binding:"required"`
	CurrentInsurance string `json:"current_insurance" form:"current_insurance" binding:"required"`
	TermsAccepted    bool   `json:"terms_accepted" form:"terms_accepted" binding:"required"`
	NotRobot         bool   `json:"not_robot" form:"not_robot" binding:"required"`
	Status           string `json:"status" form:"-" gorm:"index"`
}

func (InsuranceEnquiry) TableName() string { return "insurance_enquiries" }

var insuranceEnquiries = func() records.Resource[InsuranceEnquiry] {
	r := newEnquiry("insurance-enquiries", "enquiry", func(i *InsuranceEnquiry) *string { return &i.Status })
	r.Search = []string{"full_name", "mobile", "vehicle_reg_no"}
	return r
}()

type LoanEnquiry struct {
	records.Base
	SelectedCar    string `json:"selected_car" form:"selected_car" binding:"required"`
	CarVariant     string `json:"car_variant" form:"car_variant"`
	CarColor       string `json:"car_color" form:"car_color"`
	LoanAmount     string `json:"loan_amount" form:"loan_amount"`
	LoanDuration   string `json:"loan_duration" form:"loan_duration"`
	EmploymentType string `json:"employment_type" form:"employment_type"`
	AnnualIncome   string `json:"annual_income" form:"annual_income"`
	TimeFrame      string `json:"time_frame" form:"time_frame"`
	Title          string `json:"title" form:"title"`
	Name           string `json:"name" form:"name" binding:"required"`
	Email          string `json:"email" form:"email" binding:"required,email"`
	Mobile         string `json:"mobile" form:"mobile" binding:"required"`
	PanNo          string `json:"pan_no" form:"pan_no"`
	Address1       string `json:"address1" form:"address1"`
	Address2       string `json:"address2" form:"address2"`
	City           string `json:"city" form:"city"`
	Area           string `json:"area" form:"area"`
	Pincode        string `json:"pincode" form:"pincode"`
	Status         string `json:"status" form:"-" gorm:"index"`
}

func (LoanEnquiry) TableName() string { return "loan_enquiries" }

var loanEnquiries = func() records.Resource[LoanEnquiry] {
	r := newEnquiry("loan-enquiries", "enquiry", func(l *LoanEnquiry) *string { return &l.Status })
	r.Filters = append(r.Filters, "selected_car", "employment_type")
	r.Search = []string{"name", "email", "mobile"}
	return r
}()

type PickDropRequest struct {
	records.Base
	Name          string `json:"name" form:"name" binding:"required"`
	Mobile        string `json:"mobile" form:"mobile" binding:"required"`
	Email         string `json:"email" form:"email" binding:"required,email"`
	ServiceType   string `json:"service_type" form:"service_type" binding:"required"`
	CarModel      string `json:"car_model" form:"car_model" binding:"required"`
	CarNumber     string `json:"car_number" form:"car_number" binding:"required"`
	Mileage       string `json:"mileage" form:"mileage" binding:"required"`
	ServiceDate   string `json:"service_date" form:"service_date" binding:"required"`
	ServiceTime   string `json:"service_time" form:"service_time" binding:"required"`
	Description   string `json:"description" form:"description" gorm:"type:text"`
	ServiceCenter string `json:"service_center" form:"service_center" binding:"required"`
	PickUp        string `json:"pick_up" form:"pick_up" binding:"required,oneof=Yes No"`
	TermsAccepted bool   `json:"terms_accepted" form:"terms_accepted" binding:"required"`
	Status        string `json:"status" form:"-" gorm:"index"`
}

func (PickDropRequest) TableName() string { return "pick_drop_services" }

var pickDropRequests = func() records.Resource[PickDropRequest] {
	r := newEnquiry("pick-drop-requests", "request", func(p *PickDropRequest) *string { return &p.Status })
	r.Filters = append(r.Filters, "service_center", "service_type")
	r.Search = []string{"name", "mobile", "car_number"}
	return r
}()

type RoadsideRequest struct {
	records.Base
	Name          string `json:"name" form:"name" binding:"required"`
	Email         string `json:"email" form:"email" binding:"required,email"`
	Mobile        string `json:"mobile" form:"mobile" binding:"required"`
	Model         string `json:"model" form:"model" binding:"required"`
	ServiceCenter string `json:"service_center" form:"service_center" binding:"required"`
	Comments      string `json:"comments" form:"comments" gorm:"type:text"`
	Agree         bool   `json:"agree" form:"agree"`
	Status        string `json:"status" form:"-" gorm:"index"`
}

func (RoadsideRequest) TableName() string { return "roadside_requests" }

var roadsideRequests = func() records.Resource[RoadsideRequest] {
	r := newEnquiry("roadside-requests", "request", func(rr *RoadsideRequest) *string { return &rr.Status })
	r.Filters = append(r.Filters, "service_center")
	r.Search = []string{"name", "mobile", "model"}
	return r
}()

var modelRequiredFor = []string{"New Car", "Used Car"}

type SideFormEnquiry struct {
	records.Base
	Name             string `json:"name" form:"name" binding:"required"`
	Email            string `json:"email" form:"email" binding:"required,email"`
	ContactNumber    string `json:"contact_number" form:"contact_number" binding:"required"`
	EnquiryType      string `json:"enquiry_type" form:"enquiry_type" binding:"required" gorm:"index"`
	Model            string `json:"model" form:"model"`
	Location         string `json:"location" form:"location"`
	AgreeToMarketing bool   `json:"agree_to_marketing" form:"agree_to_marketing" binding:"required"`
	Status           string `json:"status" form:"-" gorm:"index"`
}

func (SideFormEnquiry) TableName() string { return "side_form_enquiries" }

var sideFormEnquiries = func() records.Resource[SideFormEnquiry] {
	r := newEnquiry("side-form-enquiries", "enquiry", func(s *SideFormEnquiry) *string { return &s.Status })
	r.Filters = append(r.Filters, "enquiry_type", "location", "model")
	r.Search = []string{"name", "email", "contact_number"}
	r.Facets = map[string]string{"enquiry-types": "enquiry_type", "locations": "location"}
	defaultStatus := r.Prepare
	r.Prepare = func(s *SideFormEnquiry) error {
		for _, t := range modelRequiredFor {
			if strings.EqualFold(s.EnquiryType, t) && strings.TrimSpace(s.Model) == "" {
				return records.Invalid("model", "is required for %s enquiries", t)
			}
		}
		return defaultStatus(s)
	}
	return r
}()

type TestDriveBooking struct {
	records.Base
	Salutation string `json:"salutation" form:"salutation" binding:"required"`
	Name       string `json:"name" form:"name" binding:"required"`
	Email      string `json:"email" form:"email" binding:"omitempty,email"`
	Mobile     string `json:"mobile" form:"mobile" binding:"required"`
	Otp        string `json:"otp" form:"otp" binding:"required"`
	Model      string `json:"model" form:"model" binding:"required"`
	State      string `json:"state" form:"state" binding:"required"`
	City       string `json:"city" form:"city" binding:"required"`
	Dealer     string `json:"dealer" form:"dealer"`
	Comments   string `json:"comments" form:"comments" gorm:"type:text"`
	Status     string `json:"status" form:"-" gorm:"index"`
}

func (TestDriveBooking) TableName() string { return "test_drive_bookings" }

var testDriveBookings = func() records.Resource[TestDriveBooking] {
	r := newEnquiry("test-drive-bookings", "booking", func(t *TestDriveBooking) *string { return &t.Status })
	r.Filters = append(r.Filters, "model", "city", "dealer")
	r.Search = []string{"name", "mobile", "email"}
	return r
}()
