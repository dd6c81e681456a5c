package contacts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbot/faq-engine/internal/config"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

type fakeDirectory struct {
	officers      []storage.OfficerContact
	organizations []string
	entryRows     []storage.CategoryContact
	err           error
	lastEntryIDs  []int64
}

func (f *fakeDirectory) ActiveOfficerContacts(ctx context.Context, limit int) ([]storage.OfficerContact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.officers, nil
}

func (f *fakeDirectory) Organizations(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.organizations, nil
}

func (f *fakeDirectory) ContactsForEntries(ctx context.Context, entryIDs []int64) ([]storage.CategoryContact, error) {
	f.lastEntryIDs = entryIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.entryRows, nil
}

func testOfficers() []storage.OfficerContact {
	return []storage.OfficerContact{
		{Organization: "สำนักส่งเสริมวิชาการ", Officer: "สมชาย รักเรียน", Phone: "056717100"},
		{Organization: "กองพัฒนานักศึกษา", Officer: "วิพาดา ใจดี", Phone: "0812345678"},
	}
}

func TestDefaultContactsFormatsPhones(t *testing.T) {
	dir := &fakeDirectory{officers: testOfficers()}
	r := NewResolver(dir, config.ContactsConfig{MaxContacts: 5}, observability.NopLogger())

	out := r.DefaultContacts(context.Background())
	require.Len(t, out, 2)
	assert.Equal(t, "056-717-100", out[0].Phone)
	assert.Equal(t, "056717100", out[0].PhoneRaw)
	assert.Equal(t, "081-234-5678", out[1].Phone)
}

func TestDefaultContactsPreferredByName(t *testing.T) {
	dir := &fakeDirectory{officers: testOfficers()}
	r := NewResolver(dir, config.ContactsConfig{PreferredOfficerName: "วิพาดา"}, observability.NopLogger())

	out := r.DefaultContacts(context.Background())
	require.Len(t, out, 1)
	assert.Equal(t, "วิพาดา ใจดี", out[0].Officer)
}

func TestDefaultContactsPreferredByPhonePrefix(t *testing.T) {
	dir := &fakeDirectory{officers: testOfficers()}
	r := NewResolver(dir, config.ContactsConfig{
		PreferredOfficerName: "ไม่มีชื่อนี้",
		PreferredPhonePrefix: "081",
	}, observability.NopLogger())

	out := r.DefaultContacts(context.Background())
	require.Len(t, out, 1)
	assert.Equal(t, "วิพาดา ใจดี", out[0].Officer)
}

func TestDefaultContactsDegradesOnError(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("connection refused")}
	r := NewResolver(dir, config.ContactsConfig{}, observability.NopLogger())

	out := r.DefaultContacts(context.Background())
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestDefaultContactsFallsBackToOrganizations(t *testing.T) {
	dir := &fakeDirectory{organizations: []string{"กองพัฒนานักศึกษา"}}
	r := NewResolver(dir, config.ContactsConfig{}, observability.NopLogger())

	out := r.DefaultContacts(context.Background())
	require.Len(t, out, 1)
	assert.Equal(t, "กองพัฒนานักศึกษา", out[0].Organization)
	assert.Empty(t, out[0].Officer)
}

func TestOrganizationsSkipsBlankNames(t *testing.T) {
	dir := &fakeDirectory{organizations: []string{"กองพัฒนานักศึกษา", "  ", ""}}
	r := NewResolver(dir, config.ContactsConfig{}, observability.NopLogger())

	out := r.Organizations(context.Background())
	require.Len(t, out, 1)
	assert.Equal(t, "กองพัฒนานักศึกษา", out[0].Organization)
}

func TestForEntries(t *testing.T) {
	dir := &fakeDirectory{entryRows: []storage.CategoryContact{
		{Organization: "กองพัฒนานักศึกษา", Category: "ทุนการศึกษา", Contact: "056-717-105"},
	}}
	r := NewResolver(dir, config.ContactsConfig{}, observability.NopLogger())

	out := r.ForEntries(context.Background(), []int64{1, 3})
	require.Len(t, out, 1)
	assert.Equal(t, "ทุนการศึกษา", out[0].Category)
	assert.Equal(t, []int64{1, 3}, dir.lastEntryIDs)
}
