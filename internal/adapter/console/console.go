// Package console is the line oriented command interface of the storefront.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/niksmo/storefront/internal/core/batch"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
)

const prompt = "> "

var errUsage = errors.New("usage")

type Storefront interface {
	Role() domain.Role
	Load(context.Context) error
	Login(context.Context, domain.Credentials) (domain.Role, error)
	Logout(context.Context) error

	Products() ([]domain.Product, error)
	Customers() ([]domain.Customer, error)

	Cart() cart.Cart
	AddToCart(ctx context.Context, productID string) (cart.Cart, error)
	RemoveFromCart(ctx context.Context, productID string) (cart.Cart, error)
	IncreaseQuantity(ctx context.Context, productID string) (cart.Cart, error)
	DecreaseQuantity(ctx context.Context, productID string) (cart.Cart, error)

	ProductDrafts() ([]domain.ProductDraft, error)
	CustomerDrafts() ([]domain.CustomerDraft, error)
	AddDraft(domain.Kind) (int, error)
	SetDraftField(kind domain.Kind, row int, field, value string) error
	ResetDrafts(domain.Kind) error
	SubmitProducts(context.Context) (service.ProductsResult, error)
	SubmitCustomers(context.Context) (service.CustomersResult, error)

	Delete(ctx context.Context, kind domain.Kind, id string) error
	EditProduct(ctx context.Context, id, field, value string) (domain.Product, error)
}

var _ Storefront = (*service.Service)(nil)

type Console struct {
	svc Storefront
	in  io.Reader
	out io.Writer
}

func New(svc Storefront, in io.Reader, out io.Writer) *Console {
	return &Console{svc: svc, in: in, out: out}
}

// Run reads commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	const op = "Console.Run"
	log := slog.With("op", op)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		fmt.Fprint(c.out, prompt)
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("%s: %w", op, err)
					}
				default:
				}
				return nil
			}
			quit, err := c.Exec(ctx, line)
			if err != nil {
				log.Debug("command failed", "line", line, "err", err)
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs a single command line. It reports whether the console should
// stop.
func (c *Console) Exec(ctx context.Context, line string) (quit bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		c.help()
	case "login":
		err = c.login(ctx, args)
	case "logout":
		err = c.logout(ctx)
	case "whoami":
		fmt.Fprintln(c.out, c.svc.Role())
	case "products":
		err = c.products()
	case "customers":
		err = c.customers()
	case "cart":
		c.printCart(c.svc.Cart())
	case "add", "remove", "inc", "dec":
		err = c.cartCmd(ctx, cmd, args)
	case "draft":
		err = c.draft(args)
	case "set":
		err = c.set(args)
	case "drafts":
		err = c.drafts(args)
	case "submit":
		err = c.submit(ctx, args)
	case "close":
		err = c.closeDrafts(args)
	case "delete":
		err = c.delete(ctx, args)
	case "edit":
		err = c.edit(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q, type help", cmd)
	}
	return false, err
}

func (c *Console) help() {
	fmt.Fprint(c.out, `commands:
  login <username> <password>
  logout
  whoami
  products
  customers
  cart
  add|remove|inc|dec <product id>
  draft <kind>
  set <kind> <row> <field> <value...>
  drafts <kind>
  submit <kind>
  close <kind>
  delete <kind> <id>
  edit product <id> <field> <value...>
  quit
kind is product or customer
`)
}

func (c *Console) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: login <username> <password>", errUsage)
	}

	role, err := c.svc.Login(ctx, domain.Credentials{
		Username: args[0],
		Password: args[1],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s\n", role)

	return c.svc.Load(ctx)
}

func (c *Console) logout(ctx context.Context) error {
	if err := c.svc.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func (c *Console) products() error {
	products, err := c.svc.Products()
	if err != nil {
		return err
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Price.StringFixed(2), p.Description)
	}
	return w.Flush()
}

func (c *Console) customers() error {
	customers, err := c.svc.Customers()
	if err != nil {
		return err
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, cu := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", cu.ID, cu.Name, cu.Email)
	}
	return w.Flush()
}

func (c *Console) cartCmd(ctx context.Context, cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s <product id>", errUsage, cmd)
	}

	var fn func(context.Context, string) (cart.Cart, error)
	switch cmd {
	case "add":
		fn = c.svc.AddToCart
	case "remove":
		fn = c.svc.RemoveFromCart
	case "inc":
		fn = c.svc.IncreaseQuantity
	case "dec":
		fn = c.svc.DecreaseQuantity
	}

	crt, err := fn(ctx, args[0])
	if err != nil {
		return err
	}
	c.printCart(crt)
	return nil
}

func (c *Console) printCart(crt cart.Cart) {
	if crt.Len() == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return
	}

	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY")
	for _, it := range crt.Items() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			it.Product.ID, it.Product.Name, it.Product.Price.StringFixed(2), it.Quantity)
	}
	_ = w.Flush()
	fmt.Fprintf(c.out, "items: %d, total: %s\n",
		cart.Count(crt), cart.Total(crt).StringFixed(2))
}

func (c *Console) draft(args []string) error {
	kind, err := kindArg(args, 1, "draft <kind>")
	if err != nil {
		return err
	}

	row, err := c.svc.AddDraft(kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s row %d added\n", kind, row)
	return nil
}

func (c *Console) set(args []string) error {
	const usage = "set <kind> <row> <field> <value...>"
	if len(args) < 3 {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	kind, err := kindArg(args[:1], 1, usage)
	if err != nil {
		return err
	}
	row, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: row must be a number", errUsage)
	}

	return c.svc.SetDraftField(kind, row, args[2], strings.Join(args[3:], " "))
}

func (c *Console) drafts(args []string) error {
	kind, err := kindArg(args, 1, "drafts <kind>")
	if err != nil {
		return err
	}

	w := c.table()
	switch kind {
	case domain.KindProduct:
		rows, err := c.svc.ProductDrafts()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ROW\tID\tNAME\tPRICE\tDESCRIPTION\tSTATUS")
		for i, d := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				i, d.ID, d.Name, d.Price, d.Description, status(d.Validate()))
		}
	case domain.KindCustomer:
		rows, err := c.svc.CustomerDrafts()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ROW\tNAME\tEMAIL\tSTATUS")
		for i, d := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, d.Name, d.Email, status(d.Validate()))
		}
	}
	return w.Flush()
}

func (c *Console) submit(ctx context.Context, args []string) error {
	kind, err := kindArg(args, 1, "submit <kind>")
	if err != nil {
		return err
	}

	switch kind {
	case domain.KindProduct:
		res, err := c.svc.SubmitProducts(ctx)
		ids := make([]string, 0, len(res.Accepted))
		for _, p := range res.Accepted {
			ids = append(ids, p.ID)
		}
		printOutcome(c.out, ids, res.Failed, res.Rejected)
		return err
	case domain.KindCustomer:
		res, err := c.svc.SubmitCustomers(ctx)
		ids := make([]string, 0, len(res.Accepted))
		for _, cu := range res.Accepted {
			ids = append(ids, cu.ID)
		}
		printOutcome(c.out, ids, res.Failed, res.Rejected)
		return err
	}
	return nil
}

func (c *Console) closeDrafts(args []string) error {
	kind, err := kindArg(args, 1, "close <kind>")
	if err != nil {
		return err
	}

	if err := c.svc.ResetDrafts(kind); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s drafts discarded\n", kind)
	return nil
}

func (c *Console) delete(ctx context.Context, args []string) error {
	const usage = "delete <kind> <id>"
	if len(args) != 2 {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	kind, err := kindArg(args[:1], 1, usage)
	if err != nil {
		return err
	}

	if err := c.svc.Delete(ctx, kind, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s deleted\n", kind, args[1])
	return nil
}

func (c *Console) edit(ctx context.Context, args []string) error {
	const usage = "edit product <id> <field> <value...>"
	if len(args) < 4 {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	kind, err := kindArg(args[:1], 1, usage)
	if err != nil {
		return err
	}
	if kind != domain.KindProduct {
		return fmt.Errorf("%w: %s edit", domain.ErrUnsupported, kind)
	}

	p, err := c.svc.EditProduct(ctx, args[1], args[2], strings.Join(args[3:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "product %s updated: %s %s\n", p.ID, p.Name, p.Price.StringFixed(2))
	return nil
}

func (c *Console) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func kindArg(args []string, n int, usage string) (domain.Kind, error) {
	if len(args) != n {
		return "", fmt.Errorf("%w: %s", errUsage, usage)
	}
	return domain.ParseKind(strings.ToLower(args[0]))
}

func status(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func printOutcome[D any](
	out io.Writer, ids []string, failed, rejected []batch.RowError[D],
) {
	fmt.Fprintf(out, "accepted: %d, failed: %d, rejected: %d\n",
		len(ids), len(failed), len(rejected))
	if len(ids) != 0 {
		fmt.Fprintf(out, "created: %s\n", strings.Join(ids, ", "))
	}
	for _, re := range failed {
		fmt.Fprintf(out, "  row %d failed: %v\n", re.Index, re.Err)
	}
	for _, re := range rejected {
		fmt.Fprintf(out, "  row %d rejected: %v\n", re.Index, re.Err)
	}
}
