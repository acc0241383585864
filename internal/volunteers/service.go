package volunteers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/events"
	"community-registration/volunteer-forms-backend/internal/filler"
	"community-registration/volunteer-forms-backend/internal/forms"
	"community-registration/volunteer-forms-backend/pkg/storage"
)

var (
	nameRE  = regexp.MustCompile(`^[a-zA-Z\x{0590}-\x{05FF}\s]+$`)
	idRE    = regexp.MustCompile(`^[0-9]{9}$`)
	phoneRE = regexp.MustCompile(`^05\d{8}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ErrStorageDisabled is returned by operations that need object storage when
// none is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// FormFiller produces the named volunteer form.
type FormFiller interface {
	FillVolunteerForm(ctx context.Context, fields filler.NamedFields) (*forms.Result, error)
}

// Publisher receives registry changes for the admin live feed.
type Publisher interface {
	Publish(e events.Event)
}

// Approver notifies a volunteer that they were approved.
type Approver interface {
	SendApproval(ctx context.Context, email, whatsAppLink, pdfPath string)
}

type Service interface {
	// Register creates a volunteer, or updates the one with the same ID
	// number and adds the area to its list.
	Register(ctx context.Context, req RegisterRequest) (*Volunteer, error)
	AttachPoliceForm(ctx context.Context, idNumber, fileName string, body io.Reader) (*Volunteer, error)
	ListPending(ctx context.Context) ([]Volunteer, error)
	// Approve fills the volunteer form, stores it, marks the volunteer
	// confirmed and emails the form with the area's WhatsApp link.
	Approve(ctx context.Context, idNumber string) (*Volunteer, error)
	Statistics(ctx context.Context) (*Statistics, error)
	ExportRoster(ctx context.Context, w io.Writer) error
	ExportRosterCSV(ctx context.Context, w io.Writer) error

	ListAreas(ctx context.Context) ([]VolunteerArea, error)
	SaveArea(ctx context.Context, code string, req AreaRequest) (*VolunteerArea, error)
	DeleteArea(ctx context.Context, code string) error
}

// Options configure where approved forms are stored.
type Options struct {
	Bucket     string
	KeyPrefix  string
	PresignTTL time.Duration
}

type service struct {
	repo     Repository
	forms    FormFiller
	storage  storage.S3Client
	approver Approver
	events   Publisher
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the registry service. store may be nil, in which case
// approved forms stay in the local output directory. publisher may be nil.
func NewService(repo Repository, formFiller FormFiller, store storage.S3Client, approver Approver, publisher Publisher, opts Options, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		forms:    formFiller,
		storage:  store,
		approver: approver,
		events:   publisher,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Volunteer, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.IDNumber = strings.TrimSpace(req.IDNumber)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	switch {
	case !nameRE.MatchString(req.FirstName):
		return nil, fmt.Errorf("%w: first name", ErrInvalidVolunteer)
	case !nameRE.MatchString(req.LastName):
		return nil, fmt.Errorf("%w: last name", ErrInvalidVolunteer)
	case !idRE.MatchString(req.IDNumber):
		return nil, fmt.Errorf("%w: id number", ErrInvalidVolunteer)
	case !phoneRE.MatchString(req.Phone):
		return nil, fmt.Errorf("%w: phone", ErrInvalidVolunteer)
	case !emailRE.MatchString(req.Email):
		return nil, fmt.Errorf("%w: email", ErrInvalidVolunteer)
	}

	if _, err := s.repo.GetArea(ctx, req.Area); err != nil {
		if errors.Is(err, ErrAreaNotFound) {
			return nil, fmt.Errorf("%w: unknown area %q", ErrInvalidVolunteer, req.Area)
		}
		return nil, err
	}

	existing, err := s.repo.GetVolunteerByIDNumber(ctx, req.IDNumber)
	if err != nil && !errors.Is(err, ErrVolunteerNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.FirstName = req.FirstName
		existing.LastName = req.LastName
		existing.Gender = normalizeGender(req.Gender)
		existing.Phone = req.Phone
		existing.Email = req.Email
		existing.Areas = appendArea(existing.Areas, req.Area)
		if err := s.repo.UpdateVolunteer(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update volunteer: %w", err)
		}
		s.logger.Info("Volunteer details updated", zap.String("id_number", existing.IDNumber))
		s.publish(events.TypeVolunteerRegistered, existing.IDNumber, map[string]string{"area": req.Area})
		return existing, nil
	}

	v := &Volunteer{
		IDNumber:  req.IDNumber,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Gender:    normalizeGender(req.Gender),
		StartDate: s.now().UTC(),
		Areas:     []string{req.Area},
	}
	if err := s.repo.CreateVolunteer(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create volunteer: %w", err)
	}
	s.logger.Info("Volunteer registered", zap.String("id_number", v.IDNumber), zap.String("area", req.Area))
	s.publish(events.TypeVolunteerRegistered, v.IDNumber, map[string]string{"area": req.Area})
	return v, nil
}

func (s *service) AttachPoliceForm(ctx context.Context, idNumber, fileName string, body io.Reader) (*Volunteer, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	v, err := s.repo.GetVolunteerByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, ErrInvalidPoliceForm
	}

	key := path.Join("policeForms", v.IDNumber, filepath.Base(fileName))
	url, err := s.store(ctx, key, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	v.PoliceFormURL = url
	if err := s.repo.UpdateVolunteer(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update volunteer: %w", err)
	}
	s.publish(events.TypePoliceFormAttached, v.IDNumber, nil)
	return v, nil
}

func (s *service) ListPending(ctx context.Context) ([]Volunteer, error) {
	confirmed := false
	return s.repo.ListVolunteers(ctx, &confirmed)
}

func (s *service) Approve(ctx context.Context, idNumber string) (*Volunteer, error) {
	v, err := s.repo.GetVolunteerByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, err
	}
	if v.Confirmed {
		return nil, ErrAlreadyConfirmed
	}
	if err := s.repo.ClaimApproval(ctx, idNumber); err != nil {
		return nil, err
	}

	result, formURL, err := s.approvalForm(ctx, v)
	if err != nil {
		s.releaseApproval(ctx, idNumber)
		return nil, err
	}

	v.FormURL = formURL
	v.Confirmed = true
	if err := s.repo.UpdateVolunteer(ctx, v); err != nil {
		s.releaseApproval(ctx, idNumber)
		return nil, fmt.Errorf("failed to update volunteer: %w", err)
	}
	s.logger.Info("Volunteer approved", zap.String("id_number", v.IDNumber))
	s.publish(events.TypeVolunteerApproved, v.IDNumber, map[string]string{"form_url": v.FormURL})

	if s.approver != nil && v.Email != "" {
		s.approver.SendApproval(ctx, v.Email, s.whatsAppLink(ctx, v), result.Path)
	}
	return v, nil
}

// releaseApproval returns a claimed volunteer to pending after a failed
// approval.
func (s *service) releaseApproval(ctx context.Context, idNumber string) {
	if err := s.repo.ReleaseApproval(context.WithoutCancel(ctx), idNumber); err != nil {
		s.logger.Error("Failed to release approval", zap.String("id_number", idNumber), zap.Error(err))
	}
}

// approvalForm fills the volunteer form and stores it, returning the local
// result and the URL to record.
func (s *service) approvalForm(ctx context.Context, v *Volunteer) (*forms.Result, string, error) {
	result, err := s.forms.FillVolunteerForm(ctx, filler.NamedFields{
		FirstName: v.FirstName,
		LastName:  v.LastName,
		IDNumber:  v.IDNumber,
		Phone:     v.Phone,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate volunteer form: %w", err)
	}
	if s.storage == nil {
		return result, result.Path, nil
	}

	f, err := os.Open(result.Path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	formURL, err := s.store(ctx, path.Join(s.opts.KeyPrefix, result.FileName), f)
	if err != nil {
		return nil, "", err
	}
	return result, formURL, nil
}

func (s *service) publish(t events.Type, idNumber string, data map[string]string) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{Type: t, IDNumber: idNumber, Data: data, Timestamp: s.now().UTC()})
}

// whatsAppLink returns the group link of the volunteer's first area, or an
// empty string when it cannot be resolved.
func (s *service) whatsAppLink(ctx context.Context, v *Volunteer) string {
	code := v.FirstArea()
	if code == "" {
		return ""
	}
	area, err := s.repo.GetArea(ctx, code)
	if err != nil {
		s.logger.Warn("Failed to resolve volunteer area", zap.String("area", code), zap.Error(err))
		return ""
	}
	return area.WhatsAppLink
}

func (s *service) store(ctx context.Context, key string, body io.Reader) (string, error) {
	if err := s.storage.Upload(ctx, s.opts.Bucket, key, body, "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	url, err := s.storage.GetPresignedURL(ctx, s.opts.Bucket, key, s.opts.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", key, err)
	}
	return url, nil
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	list, err := s.repo.ListVolunteers(ctx, nil)
	if err != nil {
		return nil, err
	}
	return statistics(list), nil
}

func statistics(list []Volunteer) *Statistics {
	stats := &Statistics{ByArea: []AreaCount{}}
	counts := make(map[string]int)
	for _, v := range list {
		if !v.Confirmed {
			stats.Pending++
			continue
		}
		stats.TotalConfirmed++
		for _, a := range v.Areas {
			counts[a]++
		}
	}
	for code, n := range counts {
		stats.ByArea = append(stats.ByArea, AreaCount{Code: code, Count: n})
	}
	sort.Slice(stats.ByArea, func(i, j int) bool { return stats.ByArea[i].Code < stats.ByArea[j].Code })
	return stats
}

func (s *service) ExportRoster(ctx context.Context, w io.Writer) error {
	list, err := s.repo.ListVolunteers(ctx, nil)
	if err != nil {
		return err
	}

	roster, err := newRosterWriter()
	if err != nil {
		return err
	}
	if err := roster.writeVolunteers(list); err != nil {
		return err
	}
	if err := roster.writeStatistics(statistics(list)); err != nil {
		return err
	}
	return roster.writeTo(w)
}

func (s *service) ExportRosterCSV(ctx context.Context, w io.Writer) error {
	list, err := s.repo.ListVolunteers(ctx, nil)
	if err != nil {
		return err
	}
	return writeRosterCSV(w, list)
}

func (s *service) ListAreas(ctx context.Context) ([]VolunteerArea, error) {
	return s.repo.ListAreas(ctx)
}

func (s *service) SaveArea(ctx context.Context, code string, req AreaRequest) (*VolunteerArea, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: area code", ErrInvalidVolunteer)
	}
	area := &VolunteerArea{
		Code:         code,
		Name:         req.Name,
		WithKids:     req.WithKids,
		WhatsAppLink: req.WhatsAppLink,
	}
	if area.Name == "" {
		area.Name = code
	}
	if err := s.repo.SaveArea(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

func (s *service) DeleteArea(ctx context.Context, code string) error {
	return s.repo.DeleteArea(ctx, code)
}

func normalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return ""
	}
}

func appendArea(areas []string, area string) []string {
	for _, a := range areas {
		if a == area {
			return areas
		}
	}
	return append(areas, area)
}
