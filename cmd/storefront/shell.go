package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/health"
	"github.com/ErlanBelekov/storefront-client/internal/session"
	"github.com/ErlanBelekov/storefront-client/internal/store"
)

var errQuit = errors.New("quit")

type usageError struct{ usage string }

func (e usageError) Error() string { return "usage: " + e.usage }

type command struct {
	usage string
	help  string
	run   func(s *shell, ctx context.Context, args []string) error
}

type shell struct {
	out      io.Writer
	session  *session.Manager
	products *store.ProductStore
	cart     *store.CartStore
	chat     *store.ChatbotStore
	checker  *health.Checker

	filter   domain.ProductFilter
	commands map[string]command
}

func newShell(out io.Writer, sess *session.Manager, products *store.ProductStore, cart *store.CartStore, chat *store.ChatbotStore, checker *health.Checker) *shell {
	s := &shell{
		out:      out,
		session:  sess,
		products: products,
		cart:     cart,
		chat:     chat,
		checker:  checker,
	}
	s.commands = map[string]command{
		"login":      {"login <email> <password>", "sign in", (*shell).login},
		"register":   {"register <username> <email> <password>", "create an account", (*shell).register},
		"logout":     {"logout", "sign out and revoke both tokens", (*shell).logout},
		"refresh":    {"refresh", "mint a new access token", (*shell).refresh},
		"whoami":     {"whoami", "show the signed-in user", (*shell).whoami},
		"products":   {"products [name=..] [category=..] [min=..] [max=..] [page=..] [per=..]", "list products", (*shell).listProducts},
		"product":    {"product <id>", "show one product", (*shell).showProduct},
		"categories": {"categories", "list categories", (*shell).categories},
		"page":       {"page <n>", "go to a page of the last listing", (*shell).page},
		"cart":       {"cart", "show your cart", (*shell).showCart},
		"add":        {"add <product-id> [qty]", "add a product to the cart", (*shell).add},
		"update":     {"update <item-id> <qty>", "set a cart item's quantity (0 removes)", (*shell).update},
		"remove":     {"remove <item-id>", "remove a cart item", (*shell).remove},
		"clear":      {"clear", "empty the cart", (*shell).clearCart},
		"checkout":   {"checkout", "place the order", (*shell).checkout},
		"chat":       {"chat <message>", "talk to the shopping assistant", (*shell).sendChat},
		"chat-clear": {"chat-clear", "forget the chat history", (*shell).clearChat},
		"health":     {"health", "check the backend and state store", (*shell).health},
		"help":       {"help", "list commands", (*shell).help},
		"quit":       {"quit", "leave", func(*shell, context.Context, []string) error { return errQuit }},
	}
	return s
}

// run reads commands until EOF, "quit" or ctx is done.
func (s *shell) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	s.greet()
	for {
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := s.exec(ctx, line); errors.Is(err, errQuit) {
				return
			}
		}
	}
}

// exec runs one command line. Only errQuit is returned; everything else is
// reported on s.out.
func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := s.commands[fields[0]]
	if !ok {
		fmt.Fprintf(s.out, "unknown command %q, try help\n", fields[0])
		return nil
	}

	err := cmd.run(s, ctx, fields[1:])
	var usage usageError
	switch {
	case errors.Is(err, errQuit):
		return err
	case errors.As(err, &usage):
		fmt.Fprintln(s.out, usage.Error())
	case err != nil:
		fmt.Fprintln(s.out, "error:", err)
	}
	return nil
}

func (s *shell) greet() {
	if u := s.session.User(); u != nil {
		fmt.Fprintf(s.out, "Welcome back, %s. Type help for commands.\n", u.Username)
		return
	}
	fmt.Fprintln(s.out, "Not signed in. Type help for commands.")
}

// ---- session ----

func (s *shell) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError{s.commands["login"].usage}
	}
	if !s.session.Login(ctx, args[0], args[1]) {
		return errors.New(s.session.Snapshot().Error)
	}
	fmt.Fprintf(s.out, "Signed in as %s.\n", s.session.User().Username)
	return nil
}

func (s *shell) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError{s.commands["register"].usage}
	}
	if !s.session.Register(ctx, args[0], args[1], args[2]) {
		return errors.New(s.session.Snapshot().Error)
	}
	fmt.Fprintln(s.out, "Registered. You can now log in.")
	return nil
}

func (s *shell) logout(ctx context.Context, _ []string) error {
	s.session.Logout(ctx)
	s.chat.ClearChat()
	fmt.Fprintln(s.out, "Signed out.")
	return nil
}

func (s *shell) refresh(ctx context.Context, _ []string) error {
	if !s.session.RefreshAccessToken(ctx) {
		return errors.New(s.session.Snapshot().Error)
	}
	fmt.Fprintln(s.out, "Access token refreshed.")
	return nil
}

func (s *shell) whoami(context.Context, []string) error {
	u := s.session.User()
	if u == nil {
		fmt.Fprintln(s.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(s.out, "%s (id %d)\n", u.Username, u.ID)
	if exp, ok := s.session.TokenExpiry(); ok {
		fmt.Fprintf(s.out, "access token expires %s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Second))
	}
	return nil
}

// ---- products ----

func (s *shell) listProducts(ctx context.Context, args []string) error {
	f, err := parseFilter(args)
	if err != nil {
		return err
	}
	s.filter = f
	s.products.FetchProducts(ctx, f)
	return s.printProducts()
}

func (s *shell) page(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{s.commands["page"].usage}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return usageError{s.commands["page"].usage}
	}
	s.filter.Page = n
	s.products.FetchProducts(ctx, s.filter)
	return s.printProducts()
}

func (s *shell) printProducts() error {
	st := s.products.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}
	if st.Notice != "" {
		fmt.Fprintln(s.out, st.Notice)
	}
	for _, p := range st.Products {
		fmt.Fprintf(s.out, "%4d  %-50s %10s\n", p.ID, truncate(p.Name, 50), rupees(p.Price))
	}
	fmt.Fprintf(s.out, "page %d of %d (%d products)\n", st.CurrentPage, s.products.TotalPages(), st.TotalProducts)
	return nil
}

func (s *shell) showProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{s.commands["product"].usage}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError{s.commands["product"].usage}
	}
	s.products.FetchProduct(ctx, id)
	st := s.products.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}
	p := st.Selected
	fmt.Fprintf(s.out, "%s\n  category: %s\n  price:    %s (was %s)\n", p.Name, p.Category, rupees(p.Price), rupees(p.OriginalPrice))
	if p.Rating != nil {
		fmt.Fprintf(s.out, "  rating:   %.1f\n", *p.Rating)
	}
	if p.Description != "" {
		fmt.Fprintf(s.out, "  %s\n", p.Description)
	}
	return nil
}

func (s *shell) categories(ctx context.Context, _ []string) error {
	cats := s.products.Categories(ctx)
	if cats == nil {
		return errors.New(s.products.Snapshot().Error)
	}
	fmt.Fprintln(s.out, strings.Join(cats, ", "))
	return nil
}

// ---- cart ----

func (s *shell) showCart(ctx context.Context, _ []string) error {
	s.cart.FetchCart(ctx)
	return s.printCart()
}

func (s *shell) printCart() error {
	st := s.cart.Snapshot()
	if st.Error != "" {
		return errors.New(st.Error)
	}
	if len(st.Items) == 0 {
		msg := st.Notice
		if msg == "" {
			msg = "Your cart is empty."
		}
		fmt.Fprintln(s.out, msg)
		return nil
	}
	for _, it := range st.Items {
		name := "?"
		price := 0.0
		if it.Product != nil {
			name, price = it.Product.Name, it.Product.DiscountedPrice
		}
		fmt.Fprintf(s.out, "%4d  %-45s x%-3d %10s\n", it.ID, truncate(name, 45), it.Quantity, rupees(price*float64(it.Quantity)))
	}
	fmt.Fprintf(s.out, "total %s\n", rupees(st.TotalPrice))
	return nil
}

func (s *shell) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError{s.commands["add"].usage}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError{s.commands["add"].usage}
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return usageError{s.commands["add"].usage}
		}
	}
	return s.cartResult(s.cart.AddToCart(ctx, id, qty))
}

func (s *shell) update(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError{s.commands["update"].usage}
	}
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	qty, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return usageError{s.commands["update"].usage}
	}
	return s.cartResult(s.cart.UpdateQuantity(ctx, id, qty))
}

func (s *shell) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{s.commands["remove"].usage}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError{s.commands["remove"].usage}
	}
	return s.cartResult(s.cart.RemoveFromCart(ctx, id))
}

func (s *shell) clearCart(ctx context.Context, _ []string) error {
	return s.cartResult(s.cart.ClearCart(ctx))
}

func (s *shell) cartResult(ok bool) error {
	if !ok {
		return errors.New(s.cart.Snapshot().Error)
	}
	return s.printCart()
}

func (s *shell) checkout(ctx context.Context, _ []string) error {
	msg, ok := s.cart.Checkout(ctx)
	if !ok {
		return errors.New(s.cart.Snapshot().Error)
	}
	fmt.Fprintln(s.out, msg)
	return nil
}

// ---- chatbot ----

func (s *shell) sendChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError{s.commands["chat"].usage}
	}
	before := len(s.chat.Snapshot().Messages)
	s.chat.SendMessage(ctx, strings.Join(args, " "))

	for _, m := range s.chat.Snapshot().Messages[before:] {
		if m.Sender != domain.SenderChatbot {
			continue
		}
		fmt.Fprintln(s.out, m.Text)
		for _, p := range m.Products {
			fmt.Fprintf(s.out, "  [%d] %s %s\n", p.ID, p.Name, rupees(p.DiscountedPrice))
		}
	}
	return nil
}

func (s *shell) clearChat(context.Context, []string) error {
	s.chat.ClearChat()
	fmt.Fprintln(s.out, "Chat cleared.")
	return nil
}

// ---- misc ----

func (s *shell) health(ctx context.Context, _ []string) error {
	res := s.checker.Readiness(ctx)
	names := make([]string, 0, len(res.Checks))
	for name := range res.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := res.Checks[name]
		if c.Error != "" {
			fmt.Fprintf(s.out, "%-16s %s (%s)\n", name, c.Status, c.Error)
			continue
		}
		fmt.Fprintf(s.out, "%-16s %s\n", name, c.Status)
	}
	fmt.Fprintln(s.out, "overall:", res.Status)
	return nil
}

func (s *shell) help(context.Context, []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := s.commands[name]
		fmt.Fprintf(s.out, "  %-72s %s\n", c.usage, c.help)
	}
	return nil
}

// parseFilter reads key=value pairs. Unknown keys and bad numbers are usage
// errors so typos don't silently widen the listing.
func parseFilter(args []string) (domain.ProductFilter, error) {
	var f domain.ProductFilter
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		if !ok || val == "" {
			return f, fmt.Errorf("bad filter %q, want key=value", a)
		}
		switch key {
		case "name":
			f.Name = val
		case "category":
			f.Category = val
		case "min", "max":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return f, fmt.Errorf("bad price %q", val)
			}
			if key == "min" {
				f.MinPrice = &v
			} else {
				f.MaxPrice = &v
			}
		case "page", "per":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return f, fmt.Errorf("bad %s %q", key, val)
			}
			if key == "page" {
				f.Page = n
			} else {
				f.PerPage = n
			}
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}
	return f, nil
}

func rupees(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
