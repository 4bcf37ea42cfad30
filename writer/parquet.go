package writer

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"optionflow/models"
)

// ParquetRecord is one evaluated covered call as stored in a result file.
type ParquetRecord struct {
	InsCode       string  `parquet:"name=ins_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol        string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Underlying    string  `parquet:"name=underlying, type=BYTE_ARRAY, convertedtype=UTF8"`
	OptionType    string  `parquet:"name=option_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Strike        float64 `parquet:"name=strike, type=DOUBLE"`
	ContractSize  float64 `parquet:"name=contract_size, type=DOUBLE"`
	MaxPotProfit  float64 `parquet:"name=max_pot_profit, type=DOUBLE"`
	MaxPotLoss    float64 `parquet:"name=max_pot_loss, type=DOUBLE"`
	BreakEven     float64 `parquet:"name=break_even, type=DOUBLE"`
	CurrentProfit float64 `parquet:"name=current_profit, type=DOUBLE"`
	Timestamp     int64   `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

func toRecord(e models.Evaluation) ParquetRecord {
	return ParquetRecord{
		InsCode:       e.InsCode,
		Symbol:        e.Symbol,
		Underlying:    e.Underlying,
		OptionType:    e.OptionType.String(),
		Strike:        e.Strike,
		ContractSize:  e.ContractSize,
		MaxPotProfit:  e.Result.MaxPotProfit,
		MaxPotLoss:    e.Result.MaxPotLoss,
		BreakEven:     e.Result.BreakEven,
		CurrentProfit: e.Result.CurrentProfit,
		Timestamp:     e.Timestamp.UnixMilli(),
	}
}

// memoryFileWriter implements source.ParquetFile for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) { return mfw, nil }

// Seek only reports the current size; the writer never seeks backwards.
func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error { return nil }
func (mfw *memoryFileWriter) Bytes() []byte { return mfw.buffer.Bytes() }

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "none", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// EncodeParquet writes evals into an in-memory parquet file.
func EncodeParquet(evals []models.Evaluation, compression string) ([]byte, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}

	fw := newMemoryFileWriter()
	pw, err := writer.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, e := range evals {
		if err := pw.Write(toRecord(e)); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}
