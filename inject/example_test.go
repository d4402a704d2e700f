package inject_test

import (
	"fmt"

	"github.com/codemucker/codemucker-testfirst/inject"
)

type Repo interface {
	Find(id int) string
}

type memoryRepo struct {
	rows map[int]string
}

func (r *memoryRepo) Find(id int) string {
	return r.rows[id]
}

func (r *memoryRepo) Close() error {
	fmt.Println("repo closed")
	return nil
}

type Service struct {
	_ inject.Lifecycle `postConstruct:"Start" preDestroy:"Stop"`

	Repo   Repo   `inject:""`
	Region string `inject:"" name:"region" optional:"true"`
}

func (s *Service) Start() { fmt.Println("service started in", s.Region) }
func (s *Service) Stop()  { fmt.Println("service stopped") }

func Example() {
	c := inject.New(inject.WithName("lookup"))

	_ = inject.Bind[Repo](c, &memoryRepo{rows: map[int]string{1: "alice"}})
	_ = inject.BindNamed(c, "region", "eu-west")

	svc, err := inject.Into(c, &Service{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(svc.Repo.Find(1))

	_ = c.OnScopeEnd()

	// Output:
	// service started in eu-west
	// alice
	// service stopped
	// repo closed
}

func ExampleContainer_OnScopeEnd() {
	c := inject.New()

	for _, name := range []string{"first", "second", "third"} {
		_, _ = c.Inject(inject.ScopeEndFunc(func() error {
			fmt.Println("end", name)
			return nil
		}))
	}

	_ = c.OnScopeEnd()

	_, err := c.Inject(&memoryRepo{})
	fmt.Println(err != nil)

	// Output:
	// end third
	// end second
	// end first
	// true
}

func ExampleNewKey() {
	primary := inject.NewKey[Repo]("primary")

	c := inject.New()
	_ = inject.BindKey[Repo](c, primary, &memoryRepo{rows: map[int]string{7: "bob"}})

	repo := inject.MustResolveKey(c, primary)
	fmt.Println(repo.Find(7))

	// Output:
	// bob
}
