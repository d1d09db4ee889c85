package generator

import (
	"context"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
)

// CheckState classifies a document during Check.
type CheckState string

const (
	CheckOK      CheckState = "ok"
	CheckMissing CheckState = "missing"
	CheckStale   CheckState = "stale"
	CheckEdited  CheckState = "edited" // stored fingerprint does not match the body
)

// State returns the check classification of a planned document.
func (d DocumentResult) State() CheckState {
	switch {
	case d.WouldBe == StatusCreated:
		return CheckMissing
	case d.WouldBe == StatusUnchanged:
		return CheckOK
	case d.edited:
		return CheckEdited
	default:
		return CheckStale
	}
}

// Check renders the selected documents in memory and compares them with the
// files on disk. Nothing is written. When any document is missing, stale or
// hand-edited, the returned error has the stale category.
func (g *Generator) Check(ctx context.Context, kinds []config.DocumentKind) (*Result, error) {
	res := g.newResult(CommandCheck, CommandCheck)
	kinds = g.documents(kinds)

	err := g.check(ctx, res, kinds)
	g.finish(ctx, res, err)
	return res, err
}

func (g *Generator) check(ctx context.Context, res *Result, kinds []config.DocumentKind) error {
	f, err := g.gather(ctx)
	if err != nil {
		return err
	}
	res.Project, res.Tests, res.Git = f.project, f.tests, f.git
	data := g.renderData(f, kinds)

	var outdated []string
	for _, kind := range kinds {
		doc, err := g.plan(kind, data)
		if err != nil {
			return err
		}
		res.Documents = append(res.Documents, doc)
		if state := doc.State(); state != CheckOK {
			outdated = append(outdated, doc.Path)
			g.logger.Info("Document out of date",
				logfields.Document(string(kind)),
				logfields.Path(doc.Path),
				logfields.Status(string(state)))
		}
	}
	if len(outdated) > 0 {
		return gderrors.StaleDocuments(outdated)
	}
	return nil
}
