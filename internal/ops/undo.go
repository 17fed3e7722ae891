package ops

import (
	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/manifest"
	"github.com/jra3/pkgctl/internal/project"
)

// Undo materialises the previous (project, manifest) snapshot for
// env's project path and writes it to disk (spec §4.9, §8: "redo ∘ undo
// = id").
func (d *Dispatcher) Undo(env *envcache.Cache) error {
	snap, err := d.RT.Undo.Undo(env.ProjectFilePath)
	if err != nil {
		return err
	}
	return applySnapshot(env, snap.Project, snap.Manifest)
}

// Redo is Undo's inverse: it moves the index toward newer entries.
func (d *Dispatcher) Redo(env *envcache.Cache) error {
	snap, err := d.RT.Undo.Redo(env.ProjectFilePath)
	if err != nil {
		return err
	}
	return applySnapshot(env, snap.Project, snap.Manifest)
}

// applySnapshot materialises a recorded (project, manifest) pair into
// env and writes it to disk, leaving env's original_* fields matching
// the newly-written state so a subsequent Changed() check is accurate.
func applySnapshot(env *envcache.Cache, proj *project.Project, man manifest.Manifest) error {
	env.Project = proj.Clone()
	env.Manifest = man.Clone()
	return env.Write()
}
