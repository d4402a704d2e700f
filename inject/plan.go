package inject

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var (
	lifecycleType       = reflect.TypeOf(Lifecycle{})
	setterType          = reflect.TypeOf(Setter{})
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
	postConstructorType = reflect.TypeOf((*PostConstructor)(nil)).Elem()
	preDestroyerType    = reflect.TypeOf((*PreDestroyer)(nil)).Elem()
)

// slot describes one dependency to fill, either a struct field or a setter.
type slot struct {
	typ      reflect.Type
	name     string // From `name:"..."` tag, empty for type-based lookup
	optional bool   // From `optional:"true"` tag

	fieldIndex []int  // Field slots: index path through embedded structs
	fieldName  string // Field slots: for error messages

	setter string // Setter slots: method name
	getter string // Setter slots: getter consulted for skip-if-set, may be empty
}

func (s slot) String() string {
	if s.setter != "" {
		return s.setter + "()"
	}
	return s.fieldName
}

// plan is the cached injection recipe of one concrete type. It is immutable
// once built.
type plan struct {
	typ           reflect.Type
	slots         []slot
	postConstruct string // Hook method names, empty when absent
	preDestroy    string
	skipIfSet     bool
}

// buildPlan scans typ for dependency slots and lifecycle hooks.
func buildPlan(typ reflect.Type, skipIfSet bool) (*plan, error) {
	p := &plan{typ: typ, skipIfSet: skipIfSet}

	structType := typ
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	if structType.Kind() == reflect.Struct {
		if err := p.scanFields(structType, nil, true); err != nil {
			return nil, err
		}
	}

	if err := p.addInterfaceHooks(); err != nil {
		return nil, err
	}

	return p, nil
}

// scanFields collects slots from t and the structs it embeds. Lifecycle
// markers only count when declared on the type itself.
func (p *plan) scanFields(t reflect.Type, index []int, own bool) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), index...), i)

		switch {
		case field.Type == lifecycleType:
			if own {
				if err := p.addTagHooks(field); err != nil {
					return err
				}
			}
			continue

		case field.Type == setterType:
			if err := p.addSetter(field); err != nil {
				return err
			}
			continue

		case field.Anonymous && field.Type.Kind() == reflect.Struct:
			if _, tagged := field.Tag.Lookup("inject"); !tagged {
				if err := p.scanFields(field.Type, path, false); err != nil {
					return err
				}
				continue
			}
		}

		if _, tagged := field.Tag.Lookup("inject"); !tagged {
			continue
		}

		if !field.IsExported() {
			return ErrConfiguration(p.typ, fmt.Sprintf("field %s is tagged for injection but not exported", field.Name))
		}

		p.slots = append(p.slots, slot{
			typ:        field.Type,
			name:       field.Tag.Get("name"),
			optional:   isTrue(field.Tag.Get("optional")),
			fieldIndex: path,
			fieldName:  field.Name,
		})
	}

	return nil
}

// addSetter registers a setter slot declared by a Setter marker field.
func (p *plan) addSetter(field reflect.StructField) error {
	setterName := field.Tag.Get("inject")
	if setterName == "" {
		return ErrConfiguration(p.typ, "setter marker without a method name in its inject tag")
	}

	method, ok := p.typ.MethodByName(setterName)
	if !ok {
		return ErrConfiguration(p.typ, fmt.Sprintf("setter %s not found", setterName))
	}

	// Method types include the receiver as the first parameter.
	mt := method.Type
	if mt.NumIn() != 2 || !returnsNothingOrError(mt) {
		return ErrConfiguration(p.typ, fmt.Sprintf("setter %s must take one argument and return nothing or an error", setterName))
	}

	s := slot{
		typ:      mt.In(1),
		name:     field.Tag.Get("name"),
		optional: isTrue(field.Tag.Get("optional")),
		setter:   setterName,
	}

	if getter := field.Tag.Get("getter"); getter != "" {
		if !p.isGetter(getter) {
			return ErrConfiguration(p.typ, fmt.Sprintf("getter %s must take no arguments and return one value", getter))
		}
		s.getter = getter
	} else {
		s.getter = p.findGetter(setterName)
	}

	p.slots = append(p.slots, s)

	return nil
}

// findGetter returns the getter paired with a SetX method: X, then GetX.
func (p *plan) findGetter(setterName string) string {
	base, ok := strings.CutPrefix(setterName, "Set")
	if !ok || base == "" {
		return ""
	}

	for _, candidate := range []string{base, "Get" + base} {
		if p.isGetter(candidate) {
			return candidate
		}
	}

	return ""
}

func (p *plan) isGetter(name string) bool {
	method, ok := p.typ.MethodByName(name)
	if !ok {
		return false
	}
	return method.Type.NumIn() == 1 && method.Type.NumOut() == 1
}

// addTagHooks records hooks named by a Lifecycle marker field.
func (p *plan) addTagHooks(field reflect.StructField) error {
	if name := field.Tag.Get("postConstruct"); name != "" {
		if p.postConstruct != "" {
			return ErrConfiguration(p.typ, "only one post-construct hook is allowed")
		}
		if err := p.checkHook(name); err != nil {
			return err
		}
		p.postConstruct = name
	}

	if name := field.Tag.Get("preDestroy"); name != "" {
		if p.preDestroy != "" {
			return ErrConfiguration(p.typ, "only one pre-destroy hook is allowed")
		}
		if err := p.checkHook(name); err != nil {
			return err
		}
		p.preDestroy = name
	}

	return nil
}

// addInterfaceHooks records PostConstructor and PreDestroyer implementations
// declared by the type itself. Methods promoted from embedded fields are
// ignored, like embedded Lifecycle markers. A tag naming a different method
// for the same hook is a conflict.
func (p *plan) addInterfaceHooks() error {
	if p.typ.Implements(postConstructorType) && p.declares("PostConstruct") {
		if p.postConstruct != "" && p.postConstruct != "PostConstruct" {
			return ErrConfiguration(p.typ, "only one post-construct hook is allowed")
		}
		p.postConstruct = "PostConstruct"
	}

	if p.typ.Implements(preDestroyerType) && p.declares("PreDestroy") {
		if p.preDestroy != "" && p.preDestroy != "PreDestroy" {
			return ErrConfiguration(p.typ, "only one pre-destroy hook is allowed")
		}
		p.preDestroy = "PreDestroy"
	}

	return nil
}

// declares reports whether method name belongs to the type itself rather than
// being promoted from an embedded field.
func (p *plan) declares(name string) bool {
	st := p.typ
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct || !embedsMethod(st, name) {
		return true
	}

	// An embedded field supplies name; the type declares it only when one of
	// its method sets holds a compiled method instead of a promotion wrapper.
	for _, t := range []reflect.Type{st, reflect.PointerTo(st)} {
		if m, ok := t.MethodByName(name); ok && !isPromotionWrapper(m) {
			return true
		}
	}

	return false
}

// embedsMethod reports whether an anonymous field of st has method name.
func embedsMethod(st reflect.Type, name string) bool {
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}

		ft := f.Type
		if ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface {
			ft = reflect.PointerTo(ft)
		}
		if _, ok := ft.MethodByName(name); ok {
			return true
		}
	}
	return false
}

// isPromotionWrapper reports whether m is compiler generated.
func isPromotionWrapper(m reflect.Method) bool {
	fn := runtime.FuncForPC(m.Func.Pointer())
	if fn == nil {
		return true
	}
	file, _ := fn.FileLine(fn.Entry())
	return file == "<autogenerated>"
}

func (p *plan) checkHook(name string) error {
	method, ok := p.typ.MethodByName(name)
	if !ok {
		return ErrConfiguration(p.typ, fmt.Sprintf("hook %s not found", name))
	}
	if method.Type.NumIn() != 1 || !returnsNothingOrError(method.Type) {
		return ErrConfiguration(p.typ, fmt.Sprintf("hook %s must take no arguments and return nothing or an error", name))
	}
	return nil
}

// resolver supplies slot values during apply.
type resolver interface {
	resolve(t reflect.Type, name string, failOnMissing bool) (any, error)
}

// apply fills every slot of instance and then runs the post-construct hook.
func (p *plan) apply(instance any, r resolver) error {
	rv := reflect.ValueOf(instance)

	for _, s := range p.slots {
		var err error
		if s.setter != "" {
			err = p.applySetter(rv, s, r)
		} else {
			err = p.applyField(rv, s, r)
		}
		if err != nil {
			return err
		}
	}

	return p.postConstructHook(rv)
}

func (p *plan) applyField(rv reflect.Value, s slot, r resolver) error {
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return NewInjectionError(p.typ, "field "+s.fieldName, errors.New("instance is not a non-nil pointer to a struct"))
	}

	fv := rv.Elem().FieldByIndex(s.fieldIndex)
	if p.skipIfSet && !fv.IsZero() {
		return nil
	}

	value, err := r.resolve(s.typ, s.name, !s.optional)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}

	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(s.typ) {
		return NewInjectionError(p.typ, "field "+s.fieldName,
			fmt.Errorf("value of type %s is not assignable to %s", vv.Type(), s.typ))
	}

	fv.Set(vv)

	return nil
}

func (p *plan) applySetter(rv reflect.Value, s slot, r resolver) (err error) {
	op := "setter " + s.setter
	defer func() {
		if rec := recover(); rec != nil {
			err = NewInjectionError(p.typ, op, panicError(rec))
		}
	}()

	if p.skipIfSet && s.getter != "" {
		current := rv.MethodByName(s.getter).Call(nil)[0]
		if !current.IsZero() {
			return nil
		}
	}

	value, err := r.resolve(s.typ, s.name, !s.optional)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}

	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(s.typ) {
		return NewInjectionError(p.typ, op,
			fmt.Errorf("value of type %s is not assignable to %s", vv.Type(), s.typ))
	}

	if err := callHook(rv.MethodByName(s.setter), vv); err != nil {
		return NewInjectionError(p.typ, op, err)
	}

	return nil
}

func (p *plan) postConstructHook(rv reflect.Value) (err error) {
	if p.postConstruct == "" {
		return nil
	}

	op := "post-construct " + p.postConstruct
	defer func() {
		if rec := recover(); rec != nil {
			err = NewInjectionError(p.typ, op, panicError(rec))
		}
	}()

	if err := callHook(rv.MethodByName(p.postConstruct)); err != nil {
		return NewInjectionError(p.typ, op, err)
	}

	return nil
}

// destructorFor returns the pre-destroy action bound to instance, or nil.
func (p *plan) destructorFor(instance any) func() error {
	if p.preDestroy == "" {
		return nil
	}

	method := reflect.ValueOf(instance).MethodByName(p.preDestroy)
	name := p.preDestroy

	return func() error {
		if err := callHook(method); err != nil {
			return NewInjectionError(p.typ, "pre-destroy "+name, err)
		}
		return nil
	}
}

// callHook invokes a method returning nothing or an error.
func callHook(method reflect.Value, args ...reflect.Value) error {
	out := method.Call(args)
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// returnsNothingOrError checks a method type's results.
func returnsNothingOrError(mt reflect.Type) bool {
	switch mt.NumOut() {
	case 0:
		return true
	case 1:
		return mt.Out(0) == errorType
	default:
		return false
	}
}

func isTrue(tag string) bool {
	return strings.ToLower(tag) == "true"
}
