package hybrid

import (
	"slices"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/stateforward/go-hybrid/pkg/telemetry"
)

// Pair is a component together with the location it starts from.
type Pair struct {
	Component *Component
	Location  string
}

// Fold composes pairs left to right and returns the system together with
// its compound starting location. Intermediate systems are named
// "<prefix>_<i>", see WithNamePrefix.
func Fold(pairs []Pair, maybeOptions ...Option) (system *Component, location string, err error) {
	const op = "fold"
	o := makeOptions(maybeOptions)
	ctx, span := telemetry.Start(o.ctx, o.tracer, "Fold", attribute.Int("hybrid.components", len(pairs)))
	defer func() { telemetry.End(span, err) }()

	if len(pairs) == 0 || pairs[0].Component == nil {
		return nil, "", newError(op, "", ErrEmptySystem)
	}
	system, location = pairs[0].Component, pairs[0].Location
	if !system.HasMode(location) {
		return nil, "", newError(op, system.Name(), ErrLocationMismatch, system.Name(), location)
	}
	for i, pair := range pairs[1:] {
		name := o.prefix + "_" + strconv.Itoa(i+1)
		next, err := Compose(name, system, pair.Component, location, pair.Location, append(slices.Clip(maybeOptions), WithContext(ctx))...)
		if err != nil {
			return nil, "", err
		}
		system, location = next, Compound(location, pair.Location)
	}
	span.SetAttributes(attribute.String("hybrid.location", location))
	o.logger.Debug("folded system", "name", system.Name(), "location", location, "components", len(pairs), "modes", len(system.modes))
	return system, location, nil
}
