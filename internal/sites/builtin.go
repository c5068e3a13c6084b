package sites

import "github.com/graft-pt/graft/internal/models"

// BuiltinSite is one entry of the static table shipped with the binary,
// covering the well-known NexusPHP, Unit3D, and Gazelle trackers.
type BuiltinSite struct {
	ID       string
	Name     string
	BaseURL  string
	Template models.TemplateType
	Domains  []string
	RPM      int
}

// BuiltinSites is loaded into the Tracker Identifier at startup, before any
// user domain, so a fresh install recognizes these trackers immediately.
// The richer table here (drawn from the wider private-tracker landscape,
// not just the illustrative three-site table) widens what an import run
// can classify out of the box; every entry uses one of the three supported
// templates — Gazelle sites drop the authkey parameter some trackers
// historically required, following the fixed three-column download URL
// table this registry's templates implement.
var BuiltinSites = []BuiltinSite{
	{ID: "mteam", Name: "M-Team", BaseURL: "https://kp.m-team.cc", Template: models.TemplateNexusPHP,
		Domains: []string{"m-team.cc", "kp.m-team.cc", "pt.m-team.cc"}, RPM: 10},
	{ID: "hdsky", Name: "HDSky", BaseURL: "https://hdsky.me", Template: models.TemplateNexusPHP,
		Domains: []string{"hdsky.me"}, RPM: 10},
	{ID: "ourbits", Name: "OurBits", BaseURL: "https://ourbits.club", Template: models.TemplateNexusPHP,
		Domains: []string{"ourbits.club"}, RPM: 10},
	{ID: "pterclub", Name: "PTer", BaseURL: "https://pterclub.com", Template: models.TemplateNexusPHP,
		Domains: []string{"pterclub.com"}, RPM: 10},
	{ID: "hdhome", Name: "HDHome", BaseURL: "https://hdhome.org", Template: models.TemplateNexusPHP,
		Domains: []string{"hdhome.org"}, RPM: 10},
	{ID: "audiences", Name: "Audiences", BaseURL: "https://audiences.me", Template: models.TemplateNexusPHP,
		Domains: []string{"audiences.me"}, RPM: 10},
	{ID: "chdbits", Name: "CHDBits", BaseURL: "https://chdbits.co", Template: models.TemplateNexusPHP,
		Domains: []string{"chdbits.co"}, RPM: 10},
	{ID: "ttg", Name: "TTG", BaseURL: "https://totheglory.im", Template: models.TemplateNexusPHP,
		Domains: []string{"totheglory.im", "t.totheglory.im"}, RPM: 10},
	{ID: "springsunday", Name: "SpringSunday", BaseURL: "https://springsunday.net", Template: models.TemplateNexusPHP,
		Domains: []string{"springsunday.net", "ssd.springsunday.net"}, RPM: 10},
	{ID: "hdarea", Name: "HDArea", BaseURL: "https://hdarea.club", Template: models.TemplateNexusPHP,
		Domains: []string{"hdarea.club"}, RPM: 10},
	{ID: "hdatmos", Name: "HDAtmos", BaseURL: "https://hdatmos.club", Template: models.TemplateNexusPHP,
		Domains: []string{"hdatmos.club"}, RPM: 10},
	{ID: "hdfans", Name: "HDFans", BaseURL: "https://hdfans.org", Template: models.TemplateNexusPHP,
		Domains: []string{"hdfans.org"}, RPM: 10},
	{ID: "hdtime", Name: "HDTime", BaseURL: "https://hdtime.org", Template: models.TemplateNexusPHP,
		Domains: []string{"hdtime.org"}, RPM: 10},
	{ID: "1ptba", Name: "1PTBA", BaseURL: "https://1ptba.com", Template: models.TemplateNexusPHP,
		Domains: []string{"1ptba.com"}, RPM: 10},
	{ID: "hdzone", Name: "HDZone", BaseURL: "https://hdzone.me", Template: models.TemplateNexusPHP,
		Domains: []string{"hdzone.me"}, RPM: 10},
	{ID: "hdupt", Name: "HDUpt", BaseURL: "https://pt.hdupt.com", Template: models.TemplateNexusPHP,
		Domains: []string{"hdupt.com", "pt.hdupt.com"}, RPM: 10},
	{ID: "btschool", Name: "BTSchool", BaseURL: "https://pt.btschool.club", Template: models.TemplateNexusPHP,
		Domains: []string{"btschool.club", "pt.btschool.club"}, RPM: 10},
	{ID: "blutopia", Name: "Blutopia", BaseURL: "https://blutopia.cc", Template: models.TemplateUnit3D,
		Domains: []string{"blutopia.cc"}, RPM: 10},
	{ID: "aither", Name: "Aither", BaseURL: "https://aither.cc", Template: models.TemplateUnit3D,
		Domains: []string{"aither.cc"}, RPM: 10},
	{ID: "reelflix", Name: "ReelFliX", BaseURL: "https://reelflix.xyz", Template: models.TemplateUnit3D,
		Domains: []string{"reelflix.xyz"}, RPM: 10},
	{ID: "redacted", Name: "Redacted", BaseURL: "https://redacted.sh", Template: models.TemplateGazelle,
		Domains: []string{"redacted.sh", "flacsfor.me"}, RPM: 5},
	{ID: "orpheus", Name: "Orpheus", BaseURL: "https://orpheus.network", Template: models.TemplateGazelle,
		Domains: []string{"orpheus.network", "home.opsfet.ch"}, RPM: 5},
}
