package services

import (
	"testing"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSec(d *domain.Domain) { d.RequireSecAcceptance = true }
func requireSeo(d *domain.Domain) { d.RequireSeoAcceptance = true }

func TestCreateRecord_SecAcceptance(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", requireSec)

	out, err := f.requests.CreateRecordRequest(f.ctx, f.stranger, recordFields(d, "a.example.com", domain.TypeA, "10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionQueued, out.Disposition)
	assert.Nil(t, out.Record)
	assert.Equal(t, domain.StateOpen, out.RecordRequest.State)

	out, err = f.requests.CreateRecordRequest(f.ctx, f.root, recordFields(d, "b.example.com", domain.TypeA, "10.0.0.2"))
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionCreated, out.Disposition)
	require.NotNil(t, out.Record)
	assert.Equal(t, domain.StateAccepted, out.RecordRequest.State)
}

func TestCreateRecord_AutoAcceptMatrix(t *testing.T) {
	tests := []struct {
		name     string
		private  bool
		require  bool
		typ      domain.RecordType
		content  string
		userName string
		want     domain.Disposition
	}{
		{"owner without gate", false, false, domain.TypeA, "10.0.0.1", "owner", domain.DispositionCreated},
		{"owner gated on A", false, true, domain.TypeA, "10.0.0.1", "owner", domain.DispositionQueued},
		{"owner gate skips TXT", false, true, domain.TypeTXT, "hello", "owner", domain.DispositionCreated},
		{"owner under private template", true, true, domain.TypeA, "10.0.0.1", "owner", domain.DispositionCreated},
		{"stranger without gate", false, false, domain.TypeA, "10.0.0.1", "stranger", domain.DispositionQueued},
		{"superuser ignores gate", false, true, domain.TypeA, "10.0.0.1", "root", domain.DispositionCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tpl := &domain.DomainTemplate{Name: "internal", IsPublicDomain: !tt.private}
			require.NoError(t, f.templates.CreateDomainTemplate(f.ctx, f.root, tpl))
			d := f.domain(t, "example.com", func(d *domain.Domain) {
				d.RequireSecAcceptance = tt.require
				if tt.private {
					d.TemplateID = &tpl.ID
				}
			})
			user := map[string]*domain.User{"owner": f.owner, "stranger": f.stranger, "root": f.root}[tt.userName]

			out, err := f.requests.CreateRecordRequest(f.ctx, user, recordFields(d, "host.example.com", tt.typ, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Disposition)
		})
	}
}

func TestCreateRecord_UnrestrictedDomain(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", func(d *domain.Domain) { d.Unrestricted = true })

	out, err := f.requests.CreateRecordRequest(f.ctx, f.stranger, recordFields(d, "mine.example.com", domain.TypeTXT, "x"))
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionCreated, out.Disposition)

	gated := f.domain(t, "gated.example.com", func(d *domain.Domain) {
		d.Unrestricted = true
		d.RequireSecAcceptance = true
	})
	out, err = f.requests.CreateRecordRequest(f.ctx, f.stranger, recordFields(gated, "www.gated.example.com", domain.TypeA, "10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionQueued, out.Disposition, "unrestricted never bypasses the SEC gate")
}

func TestDeleteRecord_SeoAcceptance(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", requireSeo)
	a := f.record(t, d, "www.example.com", domain.TypeA, "10.0.0.1")
	mx := f.record(t, d, "example.com", domain.TypeMX, "mail.example.com")

	out, err := f.requests.DeleteRequest(f.ctx, f.owner, domain.KindRecord, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionQueued, out.Disposition)

	out, err = f.requests.DeleteRequest(f.ctx, f.owner, domain.KindRecord, mx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionDeleted, out.Disposition)

	out, err = f.requests.DeleteRequest(f.ctx, f.root, domain.KindRecord, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionDeleted, out.Disposition)
}

func TestDeleteRecord_UnrestrictedDoesNotGrantDelete(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", func(d *domain.Domain) { d.Unrestricted = true })
	rec := f.record(t, d, "www.example.com", domain.TypeTXT, "x")

	out, err := f.requests.DeleteRequest(f.ctx, f.stranger, domain.KindRecord, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionQueued, out.Disposition)
}

func TestDomainRequest_AutoAccept(t *testing.T) {
	f := newFixture(t)

	out, err := f.requests.CreateDomainRequest(f.ctx, f.stranger, domain.DomainFields{Name: ptr("newzone.com")})
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionQueued, out.Disposition, "top-level domains need review")

	out, err = f.requests.CreateDomainRequest(f.ctx, f.root, domain.DomainFields{Name: ptr("example.com"), OwnerID: &f.owner.ID})
	require.NoError(t, err)
	require.Equal(t, domain.DispositionCreated, out.Disposition)
	assert.Equal(t, &f.owner.ID, out.Domain.OwnerID)

	out, err = f.requests.CreateDomainRequest(f.ctx, f.owner, domain.DomainFields{Name: ptr("dev.example.com")})
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionCreated, out.Disposition, "parent owner may add subdomains")
	require.NotNil(t, out.DomainRequest.ParentDomainID)

	out, err = f.requests.CreateDomainRequest(f.ctx, f.stranger, domain.DomainFields{Name: ptr("qa.example.com")})
	require.NoError(t, err)
	assert.Equal(t, domain.DispositionQueued, out.Disposition)
}

func TestCanAutoAcceptRecord_MissingDomain(t *testing.T) {
	f := newFixture(t)
	policy := NewAcceptancePolicy(f.repo, nil, nil)
	_, err := policy.CanAutoAcceptRecord(f.ctx, f.owner, &domain.RecordRequest{DomainID: "missing", Type: domain.TypeA}, domain.ActionCreate)
	assert.True(t, domain.IsConfiguration(err))
}

func TestAcceptancePolicy_CustomTypes(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", requireSec)
	policy := NewAcceptancePolicy(f.repo, []domain.RecordType{domain.TypeMX}, nil)

	ok, err := policy.CanAutoAcceptRecord(f.ctx, f.owner, &domain.RecordRequest{DomainID: d.ID, Type: domain.TypeA}, domain.ActionCreate)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.CanAutoAcceptRecord(f.ctx, f.owner, &domain.RecordRequest{DomainID: d.ID, Type: domain.TypeMX}, domain.ActionCreate)
	require.NoError(t, err)
	assert.False(t, ok)
}
