package services

import (
	"testing"

	"github.com/poyrazK/dnsaas/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soaTemplate = "ns1.{domain-name} hostmaster.{domain-name} 0 43200 600 1209600 600"

func (f *fixture) domainTemplate(t *testing.T, name string, rts ...domain.RecordTemplate) (*domain.DomainTemplate, []domain.RecordTemplate) {
	t.Helper()
	tpl := &domain.DomainTemplate{Name: name, IsPublicDomain: true}
	require.NoError(t, f.templates.CreateDomainTemplate(f.ctx, f.root, tpl))
	out := make([]domain.RecordTemplate, 0, len(rts))
	for _, rt := range rts {
		rt.DomainTemplateID = tpl.ID
		require.NoError(t, f.templates.CreateRecordTemplate(f.ctx, f.root, &rt))
		out = append(out, rt)
	}
	return tpl, out
}

func rtpl(typ domain.RecordType, name, content string) domain.RecordTemplate {
	return domain.RecordTemplate{Type: typ, Name: name, Content: content, TTL: 3600, Auth: true}
}

func (f *fixture) templatedDomain(t *testing.T, name string, tpl *domain.DomainTemplate) *domain.Domain {
	t.Helper()
	out, err := f.requests.CreateDomainRequest(f.ctx, f.root, domain.DomainFields{
		Name:       &name,
		TemplateID: &tpl.ID,
		OwnerID:    &f.owner.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.DispositionCreated, out.Disposition)
	return out.Domain
}

func (f *fixture) domainByName(t *testing.T, name string) *domain.Domain {
	t.Helper()
	d, err := f.repo.GetDomainByName(f.ctx, name)
	require.NoError(t, err)
	return d
}

func summary(recs []domain.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, string(r.Type)+" "+r.Name+" "+r.Content)
	}
	return out
}

func TestTemplate_RendersRecordsAndPTR(t *testing.T) {
	f := newFixture(t)
	t1, _ := f.domainTemplate(t, "T1",
		rtpl(domain.TypeSOA, "{domain-name}", soaTemplate),
		rtpl(domain.TypeNS, "{domain-name}", "ns1.{domain-name}"),
		rtpl(domain.TypeA, "www.{domain-name}", "192.168.1.3"),
	)

	d := f.templatedDomain(t, "example.com", t1)

	recs := f.records(t, d)
	assert.ElementsMatch(t, []string{
		"SOA example.com ns1.example.com hostmaster.example.com 0 43200 600 1209600 600",
		"NS example.com ns1.example.com",
		"A www.example.com 192.168.1.3",
	}, summary(recs))
	for _, r := range recs {
		require.NotNil(t, r.TemplateID)
		assert.Equal(t, &f.owner.ID, r.OwnerID)
	}

	reverse := f.domainByName(t, "1.168.192.in-addr.arpa")
	require.NotNil(t, reverse, "ALWAYS creates the reverse domain")
	assert.Equal(t, domain.AutoPtrNever, reverse.AutoPtr)
	ptrs := f.records(t, reverse)
	require.Len(t, ptrs, 1)
	assert.Equal(t, "3.1.168.192.in-addr.arpa", ptrs[0].Name)
	assert.Equal(t, domain.TypePTR, ptrs[0].Type)
	assert.Equal(t, "www.example.com", ptrs[0].Content)
	require.NotNil(t, ptrs[0].DependsOnID)
}

func TestTemplate_Rebind(t *testing.T) {
	f := newFixture(t)
	t1, _ := f.domainTemplate(t, "T1",
		rtpl(domain.TypeSOA, "{domain-name}", soaTemplate),
		rtpl(domain.TypeNS, "{domain-name}", "ns1.{domain-name}"),
		rtpl(domain.TypeA, "www.{domain-name}", "192.168.1.3"),
	)
	t2, t2rts := f.domainTemplate(t, "T2",
		rtpl(domain.TypeSOA, "{domain-name}", soaTemplate),
		rtpl(domain.TypeNS, "{domain-name}", "ns1.{domain-name}"),
		rtpl(domain.TypeNS, "{domain-name}", "ns2.{domain-name}"),
	)
	d := f.templatedDomain(t, "example.com", t1)

	out, err := f.requests.UpdateDomainRequest(f.ctx, f.root, d.ID, domain.DomainFields{TemplateID: &t2.ID})
	require.NoError(t, err)
	require.Equal(t, domain.DispositionUpdated, out.Disposition)

	recs := f.records(t, d)
	require.Len(t, recs, 3)
	fromT2 := map[string]bool{}
	for _, rt := range t2rts {
		fromT2[rt.ID] = true
	}
	for _, r := range recs {
		require.NotNil(t, r.TemplateID)
		assert.True(t, fromT2[*r.TemplateID], "record %s must come from T2", r.Name)
	}
	assert.Empty(t, f.records(t, f.domainByName(t, "1.168.192.in-addr.arpa")), "PTR of the T1 A record is removed")

	// Unbinding removes the generated set entirely.
	_, err = f.requests.UpdateDomainRequest(f.ctx, f.root, d.ID, domain.DomainFields{TemplateID: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, f.records(t, d))
}

func TestTemplate_DeleteRecordTemplateCascades(t *testing.T) {
	f := newFixture(t)
	t1, rts := f.domainTemplate(t, "T1",
		rtpl(domain.TypeNS, "{domain-name}", "ns1.{domain-name}"),
		rtpl(domain.TypeA, "www.{domain-name}", "192.168.1.3"),
	)
	d := f.templatedDomain(t, "example.com", t1)
	reverse := f.domainByName(t, "1.168.192.in-addr.arpa")
	require.Len(t, f.records(t, reverse), 1)

	require.NoError(t, f.templates.DeleteRecordTemplate(f.ctx, f.root, rts[1].ID))

	assert.Equal(t, []string{"NS example.com ns1.example.com"}, summary(f.records(t, d)))
	assert.Empty(t, f.records(t, reverse), "derived PTR goes with its record")
	left, err := f.repo.ListRecordTemplates(f.ctx, t1.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestTemplate_RecordTemplateChangesPropagate(t *testing.T) {
	f := newFixture(t)
	t1, rts := f.domainTemplate(t, "T1", rtpl(domain.TypeA, "www.{domain-name}", "192.168.1.3"))
	a := f.templatedDomain(t, "a.com", t1)
	b := f.templatedDomain(t, "b.com", t1)

	txt := rtpl(domain.TypeTXT, "{domain-name}", "managed by {domain-name}")
	txt.DomainTemplateID = t1.ID
	require.NoError(t, f.templates.CreateRecordTemplate(f.ctx, f.root, &txt))
	assert.Contains(t, summary(f.records(t, a)), "TXT a.com managed by a.com")
	assert.Contains(t, summary(f.records(t, b)), "TXT b.com managed by b.com")

	updated := rts[0]
	updated.Content = "192.168.1.4"
	require.NoError(t, f.templates.UpdateRecordTemplate(f.ctx, f.root, &updated))
	assert.Contains(t, summary(f.records(t, a)), "A www.a.com 192.168.1.4")

	ptrs := summary(f.records(t, f.domainByName(t, "1.168.192.in-addr.arpa")))
	assert.ElementsMatch(t, []string{
		"PTR 4.1.168.192.in-addr.arpa www.a.com",
		"PTR 4.1.168.192.in-addr.arpa www.b.com",
	}, ptrs)
}

func TestTemplate_DeleteDomainTemplate(t *testing.T) {
	f := newFixture(t)
	t1, _ := f.domainTemplate(t, "T1", rtpl(domain.TypeNS, "{domain-name}", "ns1.{domain-name}"))
	d := f.templatedDomain(t, "example.com", t1)
	manual := f.record(t, d, "manual.example.com", domain.TypeTXT, "kept")

	require.NoError(t, f.templates.DeleteDomainTemplate(f.ctx, f.root, t1.ID))

	recs := f.records(t, d)
	require.Len(t, recs, 1)
	assert.Equal(t, manual.ID, recs[0].ID)
	after, err := f.repo.GetDomain(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, after.TemplateID)

	assert.ErrorIs(t, f.templates.DeleteDomainTemplate(f.ctx, f.root, t1.ID), domain.ErrNotFound)
}

func TestTemplate_SuperuserOnly(t *testing.T) {
	f := newFixture(t)
	err := f.templates.CreateDomainTemplate(f.ctx, f.owner, &domain.DomainTemplate{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	err = f.templates.DeleteRecordTemplate(f.ctx, f.stranger, "any")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestAutoPTR_OnlyIfDomain(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", withAutoPtr(domain.AutoPtrOnlyIfDomain))

	_, err := f.requests.CreateRecordRequest(f.ctx, f.root, recordFields(d, "a.example.com", domain.TypeA, "10.20.30.40"))
	require.NoError(t, err)
	assert.Nil(t, f.domainByName(t, "30.20.10.in-addr.arpa"), "ONLY_IF_DOMAIN never creates reverse domains")

	f.domain(t, "10.in-addr.arpa")
	mid := f.domain(t, "20.10.in-addr.arpa")
	_, err = f.requests.CreateRecordRequest(f.ctx, f.root, recordFields(d, "b.example.com", domain.TypeA, "10.20.30.41"))
	require.NoError(t, err)

	assert.Equal(t, []string{"PTR 41.30.20.10.in-addr.arpa b.example.com"}, summary(f.records(t, mid)))
}

func TestAutoPTR_RecordOverride(t *testing.T) {
	f := newFixture(t)
	d := f.domain(t, "example.com", withAutoPtr(domain.AutoPtrAlways))

	fields := recordFields(d, "quiet.example.com", domain.TypeA, "10.0.0.1")
	fields.AutoPtr = ptr(domain.AutoPtrNever)
	_, err := f.requests.CreateRecordRequest(f.ctx, f.root, fields)
	require.NoError(t, err)
	assert.Nil(t, f.domainByName(t, "0.0.10.in-addr.arpa"))

	out, err := f.requests.CreateRecordRequest(f.ctx, f.root, recordFields(d, "loud.example.com", domain.TypeA, "10.0.0.2"))
	require.NoError(t, err)
	reverse := f.domainByName(t, "0.0.10.in-addr.arpa")
	require.NotNil(t, reverse)
	require.Len(t, f.records(t, reverse), 1)

	// Changing the type away from A drops the PTR.
	_, err = f.requests.UpdateRecordRequest(f.ctx, f.root, out.Record.ID, domain.RecordFields{
		Type:    ptr(domain.TypeTXT),
		Content: ptr("no longer an address"),
	})
	require.NoError(t, err)
	assert.Empty(t, f.records(t, reverse))
}
