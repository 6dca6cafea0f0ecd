package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
)

const (
	searchLimit            = 20
	defaultConversationTTL = 30 * time.Minute
)

var (
	ordinalRe  = regexp.MustCompile(`the (\d+)(st|nd|rd|th) one`)
	categoryRe = regexp.MustCompile(`in category\s*(.+?)(?:\s+by brand.*)?$`)
	brandRe    = regexp.MustCompile(`by brand\s*(.+)`)
	underRe    = regexp.MustCompile(`under\s*(\d+)`)
	overRe     = regexp.MustCompile(`over\s*(\d+)`)
	betweenRe  = regexp.MustCompile(`between\s*(\d+)\s*and\s*(\d+)`)
	fillerRe   = regexp.MustCompile(`\b(search for|search|find|look for|show me|what is|products|in category|by brand|under|over|between|and)\b`)
)

// conversation is the per-user context the chatbot keeps between turns.
type conversation struct {
	lastShown  []domain.Product
	lastIntent string
	lastActive time.Time
}

// ChatbotUsecase answers free-text shopping requests with keyword intents:
// greetings, cart management, category listing, product details and search.
type ChatbotUsecase struct {
	catalog repository.CatalogRepository
	carts   repository.CartRepository

	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex // serializes turns so conversation state stays consistent
	sessions map[int64]*conversation
}

type ChatbotOption func(*ChatbotUsecase)

// WithConversationTTL sets how long a conversation may sit idle before
// PruneIdle forgets it.
func WithConversationTTL(ttl time.Duration) ChatbotOption {
	return func(u *ChatbotUsecase) {
		if ttl > 0 {
			u.idleTTL = ttl
		}
	}
}

func WithChatbotClock(now func() time.Time) ChatbotOption {
	return func(u *ChatbotUsecase) { u.now = now }
}

func NewChatbotUsecase(catalog repository.CatalogRepository, carts repository.CartRepository, opts ...ChatbotOption) *ChatbotUsecase {
	u := &ChatbotUsecase{
		catalog:  catalog,
		carts:    carts,
		idleTTL:  defaultConversationTTL,
		now:      time.Now,
		sessions: make(map[int64]*conversation),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// PruneIdle forgets conversations with no turn in the last idle TTL.
func (u *ChatbotUsecase) PruneIdle(_ context.Context) (removed, remaining int, err error) {
	cutoff := u.now().Add(-u.idleTTL)

	u.mu.Lock()
	defer u.mu.Unlock()
	for id, c := range u.sessions {
		if c.lastActive.Before(cutoff) {
			delete(u.sessions, id)
			removed++
		}
	}
	return removed, len(u.sessions), nil
}

func (u *ChatbotUsecase) Converse(ctx context.Context, userID int64, message string) (*domain.ChatReply, error) {
	msg := strings.ToLower(strings.TrimSpace(message))

	u.mu.Lock()
	defer u.mu.Unlock()
	conv := u.conversation(userID)

	var (
		reply *domain.ChatReply
		err   error
	)
	switch {
	case hasWord(msg, "hello", "hi", "hey"):
		conv.lastIntent = "greeting"
		reply = text("Hello! I'm your sales chatbot. How can I assist you with finding products today?")
	case containsAny(msg, "thank you", "thanks"):
		conv.lastIntent = "gratitude"
		reply = text("You're welcome! Let me know if you need anything else.")
	case containsAny(msg, "reset", "start over"):
		u.reset(userID)
		reply = text("Conversation reset. How can I assist you now?")
	case containsAny(msg, "add to cart", "buy this", "purchase this"):
		reply, err = u.addToCart(ctx, userID, conv, msg)
	case containsAny(msg, "view cart", "show my cart", "what's in my cart"):
		reply, err = u.viewCart(ctx, userID, conv)
	case containsAny(msg, "remove from cart", "delete from cart"):
		reply, err = u.removeFromCart(ctx, userID, conv, msg)
	case containsAny(msg, "clear cart", "empty my cart"):
		reply, err = u.clearCart(ctx, userID, conv)
	case containsAny(msg, "checkout", "buy now", "place order"):
		reply, err = u.checkout(ctx, userID, conv)
	case containsAny(msg, "list categories", "show categories"):
		reply, err = u.categories(ctx, conv)
	case containsAny(msg, "details about", "more about", "specs of", "tell me about"):
		reply, err = u.details(ctx, conv, msg)
	case containsAny(msg, "search", "find", "look for", "show me"):
		reply, err = u.search(ctx, conv, msg)
	default:
		conv.lastIntent = "unrecognized"
		reply = text("I can help you search for products, view your cart, or get product details. Try asking 'Show me laptops' or 'What's in my cart?'.")
	}
	u.conversation(userID).lastActive = u.now()
	if err != nil {
		return nil, err
	}
	if reply.Products == nil {
		reply.Products = []domain.ProductSummary{}
	}
	return reply, nil
}

// conversation and reset must be called with u.mu held.
func (u *ChatbotUsecase) conversation(userID int64) *conversation {
	c, ok := u.sessions[userID]
	if !ok {
		c = &conversation{}
		u.sessions[userID] = c
	}
	return c
}

func (u *ChatbotUsecase) reset(userID int64) {
	u.sessions[userID] = &conversation{}
}

func (u *ChatbotUsecase) addToCart(ctx context.Context, userID int64, conv *conversation, msg string) (*domain.ChatReply, error) {
	ident := strip(msg, "add to cart", "buy this", "purchase this")
	product, err := u.resolveProduct(ctx, conv, ident)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return text("I couldn't identify which product to add to cart. Can you specify by name or number from my last search?"), nil
	}

	item, err := u.carts.AddItem(ctx, userID, product, 1)
	if err != nil {
		return nil, fmt.Errorf("chatbot add to cart: %w", err)
	}
	conv.lastIntent = "add_to_cart"

	resp := fmt.Sprintf("Added '%s' to your cart!", product.Name)
	if item.Quantity > 1 {
		resp = fmt.Sprintf("Updated quantity for '%s' to %d in your cart!", product.Name, item.Quantity)
	}
	return &domain.ChatReply{Response: resp, Products: []domain.ProductSummary{product.Summary()}}, nil
}

func (u *ChatbotUsecase) viewCart(ctx context.Context, userID int64, conv *conversation) (*domain.ChatReply, error) {
	conv.lastIntent = "view_cart"
	cart, err := u.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chatbot view cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return text("Your cart is empty."), nil
	}

	var b strings.Builder
	b.WriteString("Here's what's in your cart:\n")
	reply := &domain.ChatReply{}
	for i, it := range cart.Items {
		if it.Product == nil {
			continue
		}
		fmt.Fprintf(&b, "%d. %s (Qty: %d) - %s\n", i+1, it.Product.Name, it.Quantity, rupees(it.Product.DiscountedPrice*float64(it.Quantity)))
		reply.Products = append(reply.Products, *it.Product)
	}
	fmt.Fprintf(&b, "Total: %s", rupees(cart.TotalPrice()))
	reply.Response = b.String()
	return reply, nil
}

func (u *ChatbotUsecase) removeFromCart(ctx context.Context, userID int64, conv *conversation, msg string) (*domain.ChatReply, error) {
	cart, err := u.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chatbot remove from cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return text("Your cart is already empty."), nil
	}

	ident := strip(msg, "remove from cart", "delete from cart")
	var target *domain.CartItem
	if p, ok := ordinal(conv, ident); ok {
		for i := range cart.Items {
			if cart.Items[i].ProductID == p.ID {
				target = &cart.Items[i]
				break
			}
		}
	} else if ident != "" {
		for i := range cart.Items {
			if cart.Items[i].Product != nil && strings.Contains(strings.ToLower(cart.Items[i].Product.Name), ident) {
				target = &cart.Items[i]
				break
			}
		}
	}
	if target == nil {
		return text("I couldn't find that item in your cart. Please specify which item to remove."), nil
	}

	removed, err := u.carts.RemoveItem(ctx, userID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("chatbot remove from cart: %w", err)
	}
	conv.lastIntent = "remove_from_cart"
	name := "an item"
	if removed.Product != nil {
		name = removed.Product.Name
	}
	return text(fmt.Sprintf("Removed '%s' from your cart.", name)), nil
}

func (u *ChatbotUsecase) clearCart(ctx context.Context, userID int64, conv *conversation) (*domain.ChatReply, error) {
	conv.lastIntent = "clear_cart"
	removed, err := u.carts.Clear(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chatbot clear cart: %w", err)
	}
	if len(removed) == 0 {
		return text("Your cart is already empty."), nil
	}
	return text("Your cart has been cleared."), nil
}

func (u *ChatbotUsecase) checkout(ctx context.Context, userID int64, conv *conversation) (*domain.ChatReply, error) {
	cart, err := u.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chatbot checkout: %w", err)
	}
	if len(cart.Items) == 0 {
		return text("Your cart is empty. Nothing to checkout."), nil
	}

	total := cart.TotalPrice()
	items := 0
	for _, it := range cart.Items {
		items += it.Quantity
	}
	if _, err := u.carts.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("chatbot checkout: %w", err)
	}
	conv.lastIntent = "checkout"
	return text(fmt.Sprintf("Thank you for your order! Your purchase of %d items for a total of %s has been placed. (This is a simulated action)", items, rupees(total))), nil
}

func (u *ChatbotUsecase) categories(ctx context.Context, conv *conversation) (*domain.ChatReply, error) {
	conv.lastIntent = "list_categories"
	cats, err := u.catalog.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatbot categories: %w", err)
	}
	if len(cats) == 0 {
		return text("No categories found."), nil
	}
	return text("Available categories: " + strings.Join(cats, ", ") + ".\nWhat product are you looking for within these?"), nil
}

func (u *ChatbotUsecase) details(ctx context.Context, conv *conversation, msg string) (*domain.ChatReply, error) {
	ident := strip(msg, "details about", "more about", "specs of", "tell me about")
	product, err := u.resolveProduct(ctx, conv, ident)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return text("I couldn't find specific details for that product. Can you be more precise or refer to a number from my last search?"), nil
	}
	conv.lastIntent = "product_details"
	return &domain.ChatReply{Response: describe(product), Products: []domain.ProductSummary{product.Summary()}}, nil
}

func (u *ChatbotUsecase) search(ctx context.Context, conv *conversation, msg string) (*domain.ChatReply, error) {
	q := parseSearch(msg)
	found, err := u.catalog.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("chatbot search: %w", err)
	}
	if len(found) == 0 {
		conv.lastShown = nil
		conv.lastIntent = "no_search_results"
		return text("I couldn't find any products matching your criteria. Try different keywords or filters."), nil
	}

	var b strings.Builder
	b.WriteString("Here are some products I found:\n")
	reply := &domain.ChatReply{Products: make([]domain.ProductSummary, 0, len(found))}
	for i := range found {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, found[i].Name, rupees(found[i].Price))
		reply.Products = append(reply.Products, found[i].Summary())
	}
	reply.Response = b.String()
	conv.lastShown = found
	conv.lastIntent = "search"
	return reply, nil
}

// resolveProduct understands "the 2nd one" against the last search, then
// falls back to a name lookup. A nil product with nil error means no match.
func (u *ChatbotUsecase) resolveProduct(ctx context.Context, conv *conversation, ident string) (*domain.Product, error) {
	if p, ok := ordinal(conv, ident); ok {
		return p, nil
	}
	if ordinalRe.MatchString(ident) || ident == "" {
		return nil, nil
	}
	p, err := u.catalog.FindByName(ctx, ident)
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chatbot find product: %w", err)
	}
	return p, nil
}

func ordinal(conv *conversation, ident string) (*domain.Product, bool) {
	m := ordinalRe.FindStringSubmatch(ident)
	if m == nil || len(conv.lastShown) == 0 {
		return nil, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > len(conv.lastShown) {
		return nil, false
	}
	p := conv.lastShown[n-1]
	return &p, true
}

func parseSearch(msg string) repository.ProductSearch {
	q := repository.ProductSearch{Limit: searchLimit}

	rest := msg
	if m := betweenRe.FindStringSubmatch(rest); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		q.MinPrice, q.MaxPrice = &lo, &hi
		rest = strings.Replace(rest, m[0], "", 1)
	}
	if m := underRe.FindStringSubmatch(rest); m != nil {
		hi, _ := strconv.ParseFloat(m[1], 64)
		q.MaxPrice = &hi
		rest = strings.Replace(rest, m[0], "", 1)
	}
	if m := overRe.FindStringSubmatch(rest); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		q.MinPrice = &lo
		rest = strings.Replace(rest, m[0], "", 1)
	}
	if m := categoryRe.FindStringSubmatch(rest); m != nil {
		q.Category = strings.TrimSpace(m[1])
		rest = strings.Replace(rest, m[1], "", 1)
	}
	if m := brandRe.FindStringSubmatch(rest); m != nil {
		q.Brand = strings.TrimSpace(m[1])
		rest = strings.Replace(rest, m[0], "", 1)
	}

	rest = fillerRe.ReplaceAllString(rest, " ")
	for _, w := range strings.Fields(rest) {
		w = strings.Trim(w, ".,!?")
		if w != "" && w != "me" && w != "for" {
			q.Keywords = append(q.Keywords, singular(w))
		}
	}
	return q
}

// singular trims a plural "s" so "laptops" matches "Laptop".
func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}

func describe(p *domain.Product) string {
	brand := "N/A"
	if i := strings.IndexByte(p.Name, ' '); i > 0 {
		brand = p.Name[:i]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the details for %s (Brand: %s):\n", p.Name, brand)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&b, "Price: %s (Original: %s)\n", rupees(p.Price), rupees(p.OriginalPrice))
	if p.Rating != nil && p.RatingCount != nil {
		fmt.Fprintf(&b, "Rating: %.1f out of 5 (%d ratings)\n", *p.Rating, *p.RatingCount)
	}
	if p.ProductURL != "" {
		fmt.Fprintf(&b, "Link: %s\n", p.ProductURL)
	}
	return b.String()
}

func text(s string) *domain.ChatReply {
	return &domain.ChatReply{Response: s}
}

func rupees(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasWord(s string, words ...string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !('a' <= r && r <= 'z') }) {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

func strip(s string, phrases ...string) string {
	for _, p := range phrases {
		s = strings.ReplaceAll(s, p, "")
	}
	return strings.TrimSpace(s)
}
