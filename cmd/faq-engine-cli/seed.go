package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/campusbot/faq-engine/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and load sample data into the database",
	Long: `Applies the schema and inserts a small Thai FAQ dataset: a few
entries with keywords, stopwords, a synonym mapping, and contact rows.
Intended for development databases; existing rows with the same IDs are
replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " seeding database..."
		s.Start()
		err = seed(cmd.Context(), db)
		s.Stop()
		if err != nil {
			return err
		}

		successf("database seeded at %s", cfg.DatabaseDSN())
		return nil
	},
}

func seed(ctx context.Context, db *sql.DB) error {
	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	statements := []struct {
		query string
		args  [][]interface{}
	}{
		{
			query: `INSERT OR REPLACE INTO organizations (id, name) VALUES ($1, $2)`,
			args: [][]interface{}{
				{1, "กองพัฒนานักศึกษา"},
				{2, "สำนักส่งเสริมวิชาการและงานทะเบียน"},
			},
		},
		{
			query: `INSERT OR REPLACE INTO officers (id, org_id, name, phone, is_active) VALUES ($1, $2, $3, $4, $5)`,
			args: [][]interface{}{
				{1, 1, "วิพาดา ใจดี", "0812345678", 1},
				{2, 2, "สมชาย รักเรียน", "056717100", 1},
			},
		},
		{
			query: `INSERT OR REPLACE INTO categories (id, parent_id, name, pdf_path) VALUES ($1, $2, $3, $4)`,
			args: [][]interface{}{
				{1, nil, "ทุนการศึกษา", "scholarship.pdf"},
				{2, nil, "หอพัก", nil},
				{3, nil, "การสมัครเรียน", "admission.pdf"},
			},
		},
		{
			query: `INSERT OR REPLACE INTO category_contacts (id, category_id, contact) VALUES ($1, $2, $3)`,
			args: [][]interface{}{
				{1, 1, "กองพัฒนานักศึกษา โทร 081-234-5678"},
				{2, 3, "สำนักส่งเสริมวิชาการ โทร 056-717-100"},
			},
		},
		{
			query: `INSERT OR REPLACE INTO faq_entries (id, title, body, category_id, officer_id) VALUES ($1, $2, $3, $4, $5)`,
			args: [][]interface{}{
				{1, "ทุนเรียนดี", "มหาวิทยาลัยมีทุนเรียนดีสำหรับนักศึกษาที่มีผลการเรียนตั้งแต่ 3.50 ขึ้นไป สมัครได้ที่กองพัฒนานักศึกษา", 1, 1},
				{2, "หอพักนักศึกษา", "หอพักในมหาวิทยาลัยเปิดรับสมัครทุกภาคเรียน มีทั้งหอพักชายและหอพักหญิง", 2, 1},
				{3, "การสมัครเรียนภาคปกติ", "สมัครเรียนภาคปกติผ่านระบบออนไลน์ หรือสมัครด้วยตนเองที่สำนักส่งเสริมวิชาการ ค่าสมัคร 365 บาท", 3, 2},
			},
		},
		{
			query: `INSERT OR REPLACE INTO keywords (id, text) VALUES ($1, $2)`,
			args: [][]interface{}{
				{1, "ทุน"},
				{2, "เรียนดี"},
				{3, "หอพัก"},
				{4, "สมัครเรียน"},
				{5, "365"},
			},
		},
		{
			query: `INSERT OR REPLACE INTO entry_keywords (entry_id, keyword_id) VALUES ($1, $2)`,
			args: [][]interface{}{
				{1, 1}, {1, 2},
				{2, 3},
				{3, 4}, {3, 5},
			},
		},
		{
			query: `INSERT OR REPLACE INTO stopwords (id, text, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)`,
			args: [][]interface{}{
				{1, "ไหม"},
				{2, "ครับ"},
				{3, "ค่ะ"},
				{4, "ที่"},
				{5, "มี"},
				{6, "อยาก"},
				{7, "ทราบ"},
			},
		},
		{
			query: `INSERT OR REPLACE INTO keyword_synonyms (id, input_word, keyword_id, is_active) VALUES ($1, $2, $3, $4)`,
			args: [][]interface{}{
				{1, "สามหกห้า", 5, 1},
				{2, "สกอลาร์ชิป", 1, 1},
			},
		},
		{
			query: `INSERT OR REPLACE INTO semantic_pairs (id, word_a, word_b, similarity) VALUES ($1, $2, $3, $4)`,
			args: [][]interface{}{
				{1, "ทุน", "ทุนการศึกษา", 0.9},
				{2, "หอพัก", "ที่พัก", 0.8},
			},
		},
	}

	for _, stmt := range statements {
		for _, args := range stmt.args {
			if _, err := db.ExecContext(ctx, stmt.query, args...); err != nil {
				return fmt.Errorf("seed row: %w", err)
			}
		}
	}
	return nil
}
