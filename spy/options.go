package spy

type Option interface{ apply(*Spy) }

type optFunc func(*Spy)

func (f optFunc) apply(s *Spy) { f(s) }

// WithName sets the name used by String in place of the behavior's own name.
func WithName(name string) Option { return optFunc(func(s *Spy) { s.name = name }) }

// WithReceiver sets the receiver recorded by Call and by functions installed
// with Install. CallOn and InstallOn override it.
func WithReceiver(this any) Option { return optFunc(func(s *Spy) { s.this = this }) }
