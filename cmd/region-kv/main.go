// region-kv：交互式维护大区/省份菜谱统计与菜系表
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"recipe-map/internal/datahook"
	"recipe-map/internal/migrate"
	"recipe-map/internal/store"
	"recipe-map/internal/taxonomy"
	"recipe-map/internal/utils"
)

// regionStore：命令行用到的存储操作
type regionStore interface {
	UpsertRegion(ctx context.Context, st store.RegionStat) error
	GetRegion(ctx context.Context, name string) (*store.RegionStat, error)
	DeleteRegion(ctx context.Context, name string) error
	ListRegions(ctx context.Context, limit int) ([]store.RegionStat, error)
	UpsertCuisine(ctx context.Context, c datahook.Cuisine) error
}

type cli struct {
	st    regionStore
	tax   *taxonomy.Taxonomy
	flush func(ctx context.Context) error
	out   io.Writer
}

// key：把输入规范为统计表的键；省份接受规范名、ISO 代码与中文标签，大区接受 id
func (c *cli) key(s string) (string, error) {
	if name, ok := c.tax.Canonical(s); ok {
		return name, nil
	}
	if r, ok := c.tax.Region(strings.ToLower(s)); ok {
		return r.ID, nil
	}
	if sub, ok := c.tax.ByLabel(s); ok {
		return sub.Name, nil
	}
	return "", fmt.Errorf("unknown region or subdivision %q", s)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  set <name> <count> [specialty,...] [color-class]")
	fmt.Fprintln(w, "  get <name>")
	fmt.Fprintln(w, "  del <name>")
	fmt.Fprintln(w, "  list [limit]")
	fmt.Fprintln(w, "  cuisine <name> <region> <count>")
	fmt.Fprintln(w, "  flush")
	fmt.Fprintln(w, "  help")
	fmt.Fprintln(w, "  exit")
}

// exec：执行一行命令；返回 false 表示退出
func (c *cli) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	w := c.out
	switch strings.ToLower(parts[0]) {
	case "exit", "quit":
		return false
	case "help":
		printHelp(w)
	case "set", "add":
		if len(parts) < 3 {
			fmt.Fprintln(w, "usage: set <name> <count> [specialty,...] [color-class]")
			return true
		}
		k, err := c.key(parts[1])
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return true
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			fmt.Fprintln(w, "error: count must be a non-negative integer")
			return true
		}
		st := store.RegionStat{Name: k, Count: n}
		if len(parts) >= 4 {
			for _, s := range strings.Split(parts[3], ",") {
				if s = strings.TrimSpace(s); s != "" {
					st.Specialties = append(st.Specialties, s)
				}
			}
		}
		if len(parts) >= 5 {
			st.ColorClass = parts[4]
		}
		c.report(c.st.UpsertRegion(ctx, st))
	case "get":
		if len(parts) < 2 {
			fmt.Fprintln(w, "usage: get <name>")
			return true
		}
		k, err := c.key(parts[1])
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return true
		}
		st, err := c.st.GetRegion(ctx, k)
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return true
		}
		fmt.Fprintln(w, format(*st))
	case "del":
		if len(parts) < 2 {
			fmt.Fprintln(w, "usage: del <name>")
			return true
		}
		k, err := c.key(parts[1])
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return true
		}
		c.report(c.st.DeleteRegion(ctx, k))
	case "list":
		limit := 20
		if len(parts) >= 2 {
			if n, e := strconv.Atoi(parts[1]); e == nil && n > 0 {
				limit = n
			}
		}
		xs, err := c.st.ListRegions(ctx, limit)
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			return true
		}
		if len(xs) == 0 {
			fmt.Fprintln(w, "none")
		}
		for _, st := range xs {
			fmt.Fprintln(w, format(st))
		}
	case "cuisine":
		if len(parts) < 4 {
			fmt.Fprintln(w, "usage: cuisine <name> <region> <count>")
			return true
		}
		r, ok := c.tax.Region(strings.ToLower(parts[2]))
		if !ok {
			fmt.Fprintln(w, "error: unknown region", parts[2])
			return true
		}
		n, err := strconv.Atoi(parts[3])
		if err != nil || n < 0 {
			fmt.Fprintln(w, "error: count must be a non-negative integer")
			return true
		}
		c.report(c.st.UpsertCuisine(ctx, datahook.Cuisine{Name: parts[1], Region: r.ID, RecipeCount: n}))
	case "flush":
		if c.flush == nil {
			fmt.Fprintln(w, "redis disabled")
			return true
		}
		c.report(c.flush(ctx))
	default:
		fmt.Fprintln(w, "unknown command")
	}
	return true
}

func (c *cli) report(err error) {
	switch {
	case err == nil:
		fmt.Fprintln(c.out, "ok")
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(c.out, "not found")
	default:
		fmt.Fprintln(c.out, "error:", err)
	}
}

func format(st store.RegionStat) string {
	s := fmt.Sprintf("%s -> %d", st.Name, st.Count)
	if len(st.Specialties) > 0 {
		s += " | " + strings.Join(st.Specialties, ",")
	}
	if st.ColorClass != "" {
		s += " | " + st.ColorClass
	}
	return s
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func main() {
	var envFile string
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--env" && i+1 < len(os.Args) {
			envFile = os.Args[i+1]
			i++
		} else if strings.HasSuffix(os.Args[i], ".env") {
			envFile = os.Args[i]
		}
	}
	var db *sql.DB
	var err error
	if envFile != "" {
		_ = godotenv.Load(envFile)
		db, err = utils.OpenPostgresFromEnv()
	} else {
		r := bufio.NewReader(os.Stdin)
		fmt.Println("输入数据库连接参数，回车使用默认值")
		host := prompt(r, "PG_HOST", "127.0.0.1")
		port := prompt(r, "PG_PORT", "5432")
		user := prompt(r, "PG_USER", "postgres")
		pass := prompt(r, "PG_PASSWORD", "")
		name := prompt(r, "PG_DB", "recipemap")
		ssl := prompt(r, "PG_SSLMODE", "disable")
		dsn := "postgres://" + user
		if pass != "" {
			dsn += ":" + pass
		}
		dsn += "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
		db, err = utils.OpenPostgres(dsn, 2, 1)
	}
	if err != nil {
		fmt.Println("db error:", err)
		os.Exit(1)
	}
	if err := migrate.EnsureSchema(db); err != nil {
		fmt.Println("schema error:", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	defer st.Close()

	c := &cli{st: st, tax: taxonomy.Default(), out: os.Stdout}
	if rc := utils.OpenRedisFromEnv(); rc != nil {
		defer rc.Close()
		cache := datahook.NewCached(st, rc, os.Getenv("PAYLOAD_CACHE_KEY"), 0)
		c.flush = cache.Invalidate
	}
	fmt.Println("region kv cli ready")
	printHelp(os.Stdout)
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		more := c.exec(ctx, strings.TrimSpace(in.Text()))
		cancel()
		if !more {
			return
		}
	}
}
