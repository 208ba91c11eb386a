package app

import (
	"testing"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
)

type greeter interface{ Greet() string }

type english struct{ name string }

func (e *english) Greet() string { return "hello " + e.name }

func TestContainer_BindResolve(t *testing.T) {
	c := NewContainer()
	if err := Bind[greeter](c, &english{name: "bob"}); err != nil {
		t.Fatal(err)
	}

	g, err := Resolve[greeter](c)
	if err != nil {
		t.Fatal(err)
	}
	if g.Greet() != "hello bob" {
		t.Errorf("unexpected greeting %q", g.Greet())
	}

	if err := Bind[greeter](c, &english{}); !errors.Is(err, ErrDuplicateInstance) {
		t.Errorf("expected ErrDuplicateInstance, got %v", err)
	}
}

func TestContainer_ProvideIsLazySingleton(t *testing.T) {
	c := NewContainer()
	calls := 0
	err := Provide(c, func(contracts.DIContainer) (greeter, error) {
		calls++
		return &english{name: "lazy"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatal("factory should not run before Resolve")
	}

	first, _ := Resolve[greeter](c)
	second, _ := Resolve[greeter](c)
	if calls != 1 || first != second {
		t.Errorf("expected one shared instance, factory ran %d times", calls)
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	_ = Bind(c, "bob")
	_ = Provide(c, func(c contracts.DIContainer) (greeter, error) {
		name, err := Resolve[string](c)
		if err != nil {
			return nil, err
		}
		return &english{name: name}, nil
	})

	g, err := Resolve[greeter](c)
	if err != nil {
		t.Fatal(err)
	}
	if g.Greet() != "hello bob" {
		t.Errorf("unexpected greeting %q", g.Greet())
	}
}

func TestContainer_Errors(t *testing.T) {
	c := NewContainer()

	if _, err := Resolve[greeter](c); !errors.Is(err, ErrValueNotFound) {
		t.Errorf("expected ErrValueNotFound, got %v", err)
	}

	_ = Provide(c, func(c contracts.DIContainer) (greeter, error) {
		return Resolve[greeter](c)
	})
	if _, err := Resolve[greeter](c); !errors.Is(err, ErrCircularDep) {
		t.Errorf("expected ErrCircularDep, got %v", err)
	}

	if err := Provide(c, func(contracts.DIContainer) (greeter, error) { return nil, nil }); !errors.Is(err, ErrDuplicateFactory) {
		t.Errorf("expected ErrDuplicateFactory, got %v", err)
	}
}
