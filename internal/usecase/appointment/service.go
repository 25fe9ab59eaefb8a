package appointment

// Service groups the scheduling use cases behind one value for the
// transport layer and in-process callers.
type Service struct {
	ListAvailability *ListAvailability
	Book             *BookAppointment
	Cancel           *CancelAppointment
	Confirm          *ConfirmAppointment
	Complete         *CompleteAppointment
	Get              *GetAppointment
	ListByDate       *ListAppointmentsByDate
	ListByMonth      *ListAppointmentsByMonth
	ListForPatient   *ListPatientAppointments
	GetConfig        *GetAvailabilityConfig
	UpdateConfig     *UpdateAvailabilityConfig
	ChangesSince     *ChangesSince
	ListProviders    *ListProviders
	RegisterProvider *RegisterProvider
	SuggestSlot      *SuggestSlot
}

func NewService(deps Deps) *Service {
	return &Service{
		ListAvailability: NewListAvailability(deps),
		Book:             NewBookAppointment(deps),
		Cancel:           NewCancelAppointment(deps),
		Confirm:          NewConfirmAppointment(deps),
		Complete:         NewCompleteAppointment(deps),
		Get:              NewGetAppointment(deps),
		ListByDate:       NewListAppointmentsByDate(deps),
		ListByMonth:      NewListAppointmentsByMonth(deps),
		ListForPatient:   NewListPatientAppointments(deps),
		GetConfig:        NewGetAvailabilityConfig(deps),
		UpdateConfig:     NewUpdateAvailabilityConfig(deps),
		ChangesSince:     NewChangesSince(deps),
		ListProviders:    NewListProviders(deps),
		RegisterProvider: NewRegisterProvider(deps),
		SuggestSlot:      NewSuggestSlot(deps),
	}
}
